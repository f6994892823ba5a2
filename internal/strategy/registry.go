package strategy

import (
	"fmt"
	"sort"

	"github.com/yourusername/tick-replay/internal/models"
)

// Built-in strategy identifiers.
const (
	IDSMACrossover = "sma"
	IDRSI          = "rsi"
)

var constructors = map[string]func() Strategy{
	IDSMACrossover: func() Strategy { return NewSMACrossover() },
	IDRSI:          func() Strategy { return NewRSI() },
}

// New creates a fresh strategy instance for the given identifier.
func New(id string) (Strategy, error) {
	build, ok := constructors[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", models.ErrValidation, id)
	}
	return build(), nil
}

// Exists reports whether id resolves to a known strategy.
func Exists(id string) bool {
	_, ok := constructors[id]
	return ok
}

// List returns descriptions of all registered strategies, sorted by id.
func List() []Info {
	infos := make([]Info, 0, len(constructors))
	for id, build := range constructors {
		s := build()
		infos = append(infos, Info{ID: id, Name: s.Name(), Description: s.Description()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
