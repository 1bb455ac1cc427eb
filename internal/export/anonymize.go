package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/models"
)

// Anonymizer hands out stable pseudonyms ("User 1", "User 2", ...) in order of
// first appearance. One Anonymizer covers one export run.
type Anonymizer struct {
	pseudonyms map[string]int
	aliases    map[string]string
}

// NewAnonymizer returns an empty anonymizer.
func NewAnonymizer() *Anonymizer {
	return &Anonymizer{pseudonyms: map[string]int{}, aliases: map[string]string{}}
}

func userKey(u models.User) string {
	if u.ID != "" {
		return u.ID
	}
	return strings.ToLower(u.Name)
}

// learn records that a user's id and name both refer to the same person.
func (a *Anonymizer) learn(u models.User) {
	key := userKey(u)
	if key == "" {
		return
	}
	a.aliases[key] = key
	if u.Name != "" {
		if _, taken := a.aliases[strings.ToLower(u.Name)]; !taken {
			a.aliases[strings.ToLower(u.Name)] = key
		}
	}
}

func (a *Anonymizer) number(ref string) int {
	key, ok := a.aliases[ref]
	if !ok {
		key, ok = a.aliases[strings.ToLower(ref)]
	}
	if !ok {
		key = strings.ToLower(ref)
	}
	n, ok := a.pseudonyms[key]
	if !ok {
		n = len(a.pseudonyms) + 1
		a.pseudonyms[key] = n
	}
	return n
}

// Pseudonym returns the display pseudonym for a user id, name or mention.
func (a *Anonymizer) Pseudonym(ref string) string {
	return fmt.Sprintf("User %d", a.number(ref))
}

// User replaces identifying fields. Email and avatar are dropped.
func (a *Anonymizer) User(u models.User) models.User {
	n := a.number(userKey(u))
	return models.User{ID: fmt.Sprintf("user-%d", n), Name: fmt.Sprintf("User %d", n)}
}

// Anonymize returns anonymized copies of comments. Authors, reply authors,
// assignees, mentions, reactions and @name references in text are rewritten.
func Anonymize(comments []*models.Comment) []*models.Comment {
	out, _, _ := anonymizeWithAnalyses(comments, nil)
	return out
}

// anonymizeWithAnalyses anonymizes comments and returns scrubbed copies of
// the analyses that belong to them, sharing one set of pseudonyms. Keywords
// and themes naming a participant are dropped; names in action items and
// suggestions are replaced.
func anonymizeWithAnalyses(comments []*models.Comment, analyses []*models.Analysis) ([]*models.Comment, []*models.Analysis, *Anonymizer) {
	a := NewAnonymizer()
	for _, c := range comments {
		a.learn(c.Author)
		if c.Assignee != nil {
			a.learn(*c.Assignee)
		}
		for _, r := range c.Replies {
			a.learn(r.Author)
		}
	}
	for _, c := range comments {
		for _, m := range c.MentionedUsers {
			if m != "" && !a.identifies(m) {
				a.aliases[strings.ToLower(m)] = strings.ToLower(m)
			}
		}
	}

	out := make([]*models.Comment, len(comments))
	names := make(map[string][]string, len(comments))
	for i, orig := range comments {
		n := mentionNames(orig)
		names[orig.ID] = n
		c := orig.Clone()
		c.Author = a.User(c.Author)
		if c.Assignee != nil {
			u := a.User(*c.Assignee)
			c.Assignee = &u
		}
		c.MentionedUsers = a.mentions(c.MentionedUsers)
		for j := range c.Reactions {
			c.Reactions[j].UserIDs = a.reactionIDs(c.Reactions[j].UserIDs)
		}
		c.Content = a.scrub(c.Content, n)
		for j := range c.Replies {
			r := &c.Replies[j]
			r.Author = a.User(r.Author)
			r.MentionedUsers = a.mentions(r.MentionedUsers)
			r.Content = a.scrub(r.Content, n)
		}
		out[i] = c
	}

	var scrubbed []*models.Analysis
	for _, an := range analyses {
		n, ok := names[an.CommentID]
		if !ok {
			continue
		}
		scrubbed = append(scrubbed, a.analysis(an, n))
	}
	return out, scrubbed, a
}

func (a *Anonymizer) analysis(orig *models.Analysis, names []string) *models.Analysis {
	an := *orig
	an.Themes = a.dropIdentities(orig.Themes)
	an.Keywords = a.dropIdentities(orig.Keywords)
	an.ActionItems = make([]models.ActionItem, len(orig.ActionItems))
	for i, it := range orig.ActionItems {
		it.Text = a.scrubNames(it.Text, names)
		an.ActionItems[i] = it
	}
	an.Suggestions = make([]models.Suggestion, len(orig.Suggestions))
	for i, sg := range orig.Suggestions {
		sg.Text = a.scrubNames(sg.Text, names)
		an.Suggestions[i] = sg
	}
	return &an
}

// identifies reports whether word is a known participant name, id or mention.
func (a *Anonymizer) identifies(word string) bool {
	word = strings.TrimPrefix(strings.TrimSpace(word), "@")
	if word == "" {
		return false
	}
	if _, ok := a.aliases[word]; ok {
		return true
	}
	_, ok := a.aliases[strings.ToLower(word)]
	return ok
}

func (a *Anonymizer) dropIdentities(words []string) []string {
	var out []string
	for _, w := range words {
		if !a.identifies(w) {
			out = append(out, w)
		}
	}
	return out
}

// scrubNames replaces @name references and bare whole-word names.
func (a *Anonymizer) scrubNames(text string, names []string) string {
	text = a.scrub(text, names)
	for _, n := range names {
		if n == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(n) + `\b`)
		text = re.ReplaceAllString(text, a.Pseudonym(n))
	}
	return text
}

// scrubInsights drops aggregate themes that name a participant.
func (a *Anonymizer) scrubInsights(in *insights.Insights) *insights.Insights {
	if in == nil {
		return nil
	}
	cp := *in
	cp.TopThemes = nil
	for _, t := range in.TopThemes {
		if !a.identifies(t.Label) {
			cp.TopThemes = append(cp.TopThemes, t)
		}
	}
	return &cp
}

func (a *Anonymizer) mentions(refs []string) []string {
	if len(refs) == 0 {
		return refs
	}
	out := make([]string, len(refs))
	for i, m := range refs {
		out[i] = a.Pseudonym(m)
	}
	return out
}

func (a *Anonymizer) reactionIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("user-%d", a.number(id))
	}
	return out
}

// mentionNames collects every display name in the thread that may be @-referenced.
func mentionNames(c *models.Comment) []string {
	var names []string
	add := func(n string) {
		if n != "" {
			names = append(names, n)
		}
	}
	add(c.Author.Name)
	if c.Assignee != nil {
		add(c.Assignee.Name)
	}
	for _, r := range c.Replies {
		add(r.Author.Name)
	}
	names = append(names, c.MentionedUsers...)
	return names
}

func (a *Anonymizer) scrub(text string, names []string) string {
	if !strings.Contains(text, "@") {
		return text
	}
	for _, n := range names {
		text = strings.ReplaceAll(text, "@"+n, "@"+a.Pseudonym(n))
	}
	return text
}
