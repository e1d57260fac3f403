package imap

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/bscott/maillib/internal/filter"
)

var searchDateLayouts = []string{filter.DateLayout, "2 Jan 2006", "2-Jan-2006", "02-Jan-2006"}

// ParseCriteria reads a compiled search predicate back into go-imap search
// criteria. It understands the keys the filter compiler emits plus ALL,
// except NEW, OLD and RECENT: imapclient has no encoding for the \Recent
// keys and would send them as KEYWORD, so they are rejected with
// *UnsupportedSearchKeyError instead.
func ParseCriteria(predicate string) (*imap.SearchCriteria, error) {
	tokens, err := tokenize(predicate)
	if err != nil {
		return nil, err
	}

	criteria := &imap.SearchCriteria{}
	for i := 0; i < len(tokens); i++ {
		key := strings.ToUpper(tokens[i].text)
		if tokens[i].quoted {
			return nil, fmt.Errorf("unexpected string %q in search predicate", tokens[i].text)
		}

		switch key {
		case "NEW", "OLD", "RECENT":
			return nil, &UnsupportedSearchKeyError{Key: key}
		}

		if clause, ok := flagClause(key); ok {
			criteria.And(clause)
			continue
		}

		if i+1 >= len(tokens) {
			return nil, fmt.Errorf("search key %s needs an argument", key)
		}
		arg := tokens[i+1].text
		i++

		clause, err := argClause(key, arg)
		if err != nil {
			return nil, err
		}
		criteria.And(clause)
	}
	return criteria, nil
}

func flagClause(key string) (*imap.SearchCriteria, bool) {
	flags := map[string]imap.Flag{
		"ANSWERED": imap.FlagAnswered,
		"DELETED":  imap.FlagDeleted,
		"FLAGGED":  imap.FlagFlagged,
		"SEEN":     imap.FlagSeen,
	}
	if f, ok := flags[key]; ok {
		return &imap.SearchCriteria{Flag: []imap.Flag{f}}, true
	}
	if f, ok := flags[strings.TrimPrefix(key, "UN")]; ok && strings.HasPrefix(key, "UN") {
		return &imap.SearchCriteria{NotFlag: []imap.Flag{f}}, true
	}

	if key == "ALL" {
		return &imap.SearchCriteria{}, true
	}
	return nil, false
}

func argClause(key, arg string) (*imap.SearchCriteria, error) {
	switch key {
	case "BCC", "CC", "FROM", "SUBJECT", "TO":
		field := strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
		return &imap.SearchCriteria{Header: []imap.SearchCriteriaHeaderField{{Key: field, Value: arg}}}, nil
	case "BODY":
		return &imap.SearchCriteria{Body: []string{arg}}, nil
	case "TEXT":
		return &imap.SearchCriteria{Text: []string{arg}}, nil
	case "KEYWORD":
		return &imap.SearchCriteria{Flag: []imap.Flag{imap.Flag(arg)}}, nil
	case "UNKEYWORD":
		return &imap.SearchCriteria{NotFlag: []imap.Flag{imap.Flag(arg)}}, nil
	case "BEFORE", "ON", "SINCE":
		day, err := parseSearchDate(arg)
		if err != nil {
			return nil, err
		}
		switch key {
		case "BEFORE":
			return &imap.SearchCriteria{Before: day}, nil
		case "SINCE":
			return &imap.SearchCriteria{Since: day}, nil
		}
		return &imap.SearchCriteria{Since: day, Before: day.AddDate(0, 0, 1)}, nil
	}
	return nil, fmt.Errorf("unsupported search key %s", key)
}

func parseSearchDate(s string) (time.Time, error) {
	for _, layout := range searchDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid search date %q", s)
}

type token struct {
	text   string
	quoted bool
}

// tokenize splits a predicate into atoms and quoted strings.
func tokenize(s string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			var b strings.Builder
			i++
			for ; i < len(s) && s[i] != '"'; i++ {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				b.WriteByte(s[i])
			}
			if i >= len(s) {
				return nil, fmt.Errorf("unterminated string in search predicate")
			}
			i++
			tokens = append(tokens, token{text: b.String(), quoted: true})
		default:
			start := i
			for i < len(s) && s[i] != ' ' && s[i] != '\t' {
				i++
			}
			tokens = append(tokens, token{text: s[start:i]})
		}
	}
	return tokens, nil
}
