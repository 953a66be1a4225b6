package domain

import "time"

// Social links a user to an account at an external identity provider.
type Social struct {
	ID        int64
	UserID    int64
	Provider  Provider
	OpenID    string
	UnionID   string // empty when the provider has none
	Nickname  string
	Avatar    string
	CreatedAt time.Time
}

type Provider string

const (
	ProviderWechat Provider = "wechat"
	ProviderQQ     Provider = "qq"
	ProviderWeibo  Provider = "weibo"
	ProviderGithub Provider = "github"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderWechat, ProviderQQ, ProviderWeibo, ProviderGithub:
		return true
	}
	return false
}
