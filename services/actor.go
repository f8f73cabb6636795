package services

// Actor identifies who is performing an operation. It is a closed set:
// anonymous guests carry only their bearer token, staff carry identity,
// place affiliation and role.
type Actor interface {
	isActor()
}

type Guest struct {
	Token string
}

func (Guest) isActor() {}

type Staff struct {
	UserID  uint
	PlaceID uint
	Role    string
}

func (Staff) isActor() {}
