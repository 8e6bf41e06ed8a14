package realms

type Repo interface {
	Get(realmID string) (*Realm, error)
	Upsert(realm *Realm) error
	Delete(realmID string) error
	List(offset, limit int) ([]*Realm, error)
}
