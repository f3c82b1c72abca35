package render

import (
	"strings"

	"golang.org/x/text/cases"
)

const defaultIcon = "🔗"

type platform struct {
	name  string
	icon  string
	hosts []string
}

var platforms = []platform{
	{name: "twitter", icon: "🐦", hosts: []string{"twitter.com"}},
	{name: "x", icon: "𝕏", hosts: []string{"x.com"}},
	{name: "instagram", icon: "📷", hosts: []string{"instagram.com"}},
	{name: "facebook", icon: "📘", hosts: []string{"facebook.com", "fb.com"}},
	{name: "linkedin", icon: "💼", hosts: []string{"linkedin.com"}},
	{name: "github", icon: "🐙", hosts: []string{"github.com"}},
	{name: "youtube", icon: "▶️", hosts: []string{"youtube.com", "youtu.be"}},
	{name: "tiktok", icon: "🎵", hosts: []string{"tiktok.com"}},
	{name: "discord", icon: "💬", hosts: []string{"discord.gg", "discord.com"}},
	{name: "twitch", icon: "🎮", hosts: []string{"twitch.tv"}},
	{name: "mastodon", icon: "🐘", hosts: []string{"mastodon.social"}},
	{name: "bluesky", icon: "🦋", hosts: []string{"bsky.app"}},
	{name: "spotify", icon: "🎧", hosts: []string{"spotify.com"}},
	{name: "email", icon: "✉️", hosts: nil},
}

// fold case-folds s. Casers are stateful, so one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// PlatformIcon returns the badge icon for a social link title, matched
// case-insensitively, or a generic link icon.
func PlatformIcon(title string) string {
	key := fold(strings.TrimSpace(title))
	for _, p := range platforms {
		if p.name == key {
			return p.icon
		}
	}
	return defaultIcon
}

// PlatformForHost reports the platform name serving host, if any.
func PlatformForHost(host string) (string, bool) {
	host = fold(strings.TrimPrefix(host, "www."))
	for _, p := range platforms {
		for _, h := range p.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p.name, true
			}
		}
	}
	return "", false
}
