package ownership

import "regexp"

// Pattern recognises one automation bot notice. Mentions is the number of
// user mentions a genuine notice captures; OwnerGroup indexes the capture
// that holds the owner.
type Pattern struct {
	Name                string
	Expr                *regexp.Regexp
	Mentions            int
	OwnerGroup          int
	InvalidatesOverride bool
}

const mention = `<@!?(\d+)>`

var DefaultPatterns = []Pattern{
	{
		Name:       "kick_ban",
		Expr:       regexp.MustCompile(mention + `, du hast ` + mention + ` aus (?:dem|diesem) temporären Sprachkanal (?:gekickt|gebannt)`),
		Mentions:   2,
		OwnerGroup: 0,
	},
	{
		Name:                "rename",
		Expr:                regexp.MustCompile(mention + `, du hast diesen temporären Sprachkanal zu`),
		Mentions:            1,
		OwnerGroup:          0,
		InvalidatesOverride: true,
	},
	{
		Name:                "transfer",
		Expr:                regexp.MustCompile(mention + `, du hast die Eigentumsrechte des temporären Sprachkanals auf ` + mention + ` übertragen`),
		Mentions:            2,
		OwnerGroup:          1,
		InvalidatesOverride: true,
	},
	{
		Name:       "limit",
		Expr:       regexp.MustCompile(mention + `, du hast das Nutzerlimit dieses temporären Sprachkanals zu`),
		Mentions:   1,
		OwnerGroup: 0,
	},
}

// Match returns the owner id when text is a complete instance of p.
func (p Pattern) Match(text string) (string, bool) {
	groups := p.Expr.FindStringSubmatch(text)
	if groups == nil {
		return "", false
	}
	captured := make([]string, 0, len(groups)-1)
	for _, group := range groups[1:] {
		if group != "" {
			captured = append(captured, group)
		}
	}
	if len(captured) != p.Mentions || p.OwnerGroup >= len(captured) {
		return "", false
	}
	return captured[p.OwnerGroup], true
}
