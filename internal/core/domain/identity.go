package domain

import "strings"

// EffectiveLogin returns the login used to route a ticket: the assigned owner
// when there is one, otherwise the ticket's creator.
func EffectiveLogin(ownerLogin, createdByLogin string) string {
	if strings.TrimSpace(ownerLogin) != "" {
		return ownerLogin
	}
	return createdByLogin
}
