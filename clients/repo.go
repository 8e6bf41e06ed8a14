package clients

// Repo provides lookup and management of client configurations. Get is the
// hot path used by the authentication engine; implementations may cache, but
// the staleness window must be bounded since method changes (e.g. disabling
// refresh rotation) must take effect within it.
type Repo interface {
	Get(clientID string) (*Client, error)
	Upsert(client *Client) error
	Delete(clientID string) error
	List(realmID string, offset, limit int) ([]*Client, error)
}
