package entity

type Player struct {
	ID           string
	Name         string
	Role         Role
	Alive        bool
	Protected    bool
	Investigated bool
	CauseOfDeath CauseOfDeath
}

func NewPlayer(id, name string) *Player {
	return &Player{
		ID:    id,
		Name:  name,
		Alive: true,
	}
}

func (that *Player) Kill(cause CauseOfDeath) {
	that.Alive = false
	that.CauseOfDeath = cause
}
