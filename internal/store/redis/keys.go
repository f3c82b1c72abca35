package redis

const (
	// KeyPrefixHandoff prefixes pending handoff records.
	KeyPrefixHandoff = "linkitylink:handoff:"
	// KeyIndex is the hash mirroring the reverse index (pubKey -> entry JSON).
	KeyIndex = "linkitylink:index:alphanumeric"
)

// HandoffKey returns the redis key for a handoff token.
func HandoffKey(token string) string {
	return KeyPrefixHandoff + token
}

// IndexKey returns the key of the reverse-index hash.
func IndexKey() string {
	return KeyIndex
}
