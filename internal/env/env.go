// Package env names the deployment environments the server knows about.
package env

import "strings"

type Environment string

const (
	Local      Environment = "local"
	Production Environment = "production"

	Key string = "ENV"
)

func (e Environment) Valid() bool {
	switch e {
	case Local, Production:
		return true
	}
	return false
}

func (e Environment) IsProduction() bool { return e == Production }

// Parse falls back to Local for empty or unknown values.
func Parse(v string) Environment {
	e := Environment(strings.ToLower(strings.TrimSpace(v)))
	if !e.Valid() {
		return Local
	}
	return e
}
