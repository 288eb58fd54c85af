package token

// Keywords are case-sensitive: "Let" is an identifier.
var keywords = map[string]Kind{}

func init() {
	for k := KwFn; k <= KwFalse; k++ {
		keywords[k.String()] = k
	}
}

func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
