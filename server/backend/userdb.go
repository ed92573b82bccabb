// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package backend

import (
	"bufio"
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/croessner/honeyauth/server/log"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/simia-tech/crypt"
)

// DefaultUserDBRules are used when userdb.path is empty. root may log in with anything except a few obvious
// passwords.
const DefaultUserDBRules = `# login:x:password
root:x:!root
root:x:!123456
root:x:!/honeypot/i
root:x:*
tomcat:x:*
oracle:x:*
`

// matcher decides whether a single field of a rule matches.
type matcher interface {
	match(value string) bool
}

type wildcardMatcher struct{}

func (wildcardMatcher) match(string) bool {
	return true
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) match(value string) bool {
	return m.re.MatchString(value)
}

type literalMatcher struct {
	want string
}

func (m literalMatcher) match(value string) bool {
	return subtle.ConstantTimeCompare([]byte(m.want), []byte(value)) == 1
}

type cryptMatcher struct {
	hash string
}

func (m cryptMatcher) match(value string) bool {
	ok, err := comparePasswords(m.hash, value)

	return err == nil && ok
}

// comparePasswords checks a plain password against a crypt(3) style hash (MD5, SHA256, SHA512, bcrypt, argon2).
func comparePasswords(hashPassword string, plainPassword string) (bool, error) {
	_, _, _, pwhash, err := crypt.DecodeSettings(hashPassword)
	if err != nil {
		return false, err
	}

	settings, _, found := strings.Cut(hashPassword, pwhash)
	if !found {
		return false, fmt.Errorf("%w: unsupported hash", errors.ErrUserDBSyntax)
	}

	encoded, err := crypt.Crypt(plainPassword, settings)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(encoded), []byte(hashPassword)) == 1, nil
}

// parseMatcher compiles a rule field. "*" matches everything, "/re/" and "/re/i" are regular expressions. For
// password fields a value starting with "$" is a crypt hash.
func parseMatcher(field string, password bool) (matcher, error) {
	switch {
	case field == "*":
		return wildcardMatcher{}, nil
	case len(field) > 2 && strings.HasPrefix(field, "/") && (strings.HasSuffix(field, "/") || strings.HasSuffix(field, "/i")):
		expr := strings.TrimPrefix(field, "/")

		caseless := strings.HasSuffix(expr, "/i")
		if caseless {
			expr = strings.TrimSuffix(expr, "/i")
		} else {
			expr = strings.TrimSuffix(expr, "/")
		}

		// An empty expression would match every value.
		if expr == "" {
			return nil, fmt.Errorf("empty regular expression %q", field)
		}

		if caseless {
			expr = "(?i)" + expr
		}

		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}

		return regexMatcher{re: re}, nil
	case password && strings.HasPrefix(field, "$"):
		if _, _, _, _, err := crypt.DecodeSettings(field); err != nil {
			return nil, err
		}

		return cryptMatcher{hash: field}, nil
	default:
		return literalMatcher{want: field}, nil
	}
}

type userDBRule struct {
	login    matcher
	password matcher
	allow    bool
}

// UserDB checks credentials against an ordered rule list in the format "login:x:password". The first rule whose
// login and password both match decides; a password starting with "!" denies.
type UserDB struct {
	rules []userDBRule
}

// NewUserDB is the Factory of the userdb backend.
func NewUserDB(deps Deps) (Backend, error) {
	path := deps.Cfg.GetUserDB().GetPath()
	logger := log.OrDefault(deps.Logger)

	if path == "" {
		level.Info(logger).Log(definitions.LogKeyMsg, "userdb.path not set, using built-in rules")

		return ParseUserDB(strings.NewReader(DefaultUserDBRules))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	userDB, err := ParseUserDB(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logRules(logger, path, userDB)

	return userDB, nil
}

func logRules(logger kitlog.Logger, path string, userDB *UserDB) {
	level.Info(logger).Log(definitions.LogKeyMsg, "userdb loaded", "path", path, "rules", len(userDB.rules))
}

// ParseUserDB reads rules from r. Empty lines and lines starting with "#" are ignored.
func ParseUserDB(r io.Reader) (*UserDB, error) {
	userDB := &UserDB{}
	scanner := bufio.NewScanner(r)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, ":", 3)
		if len(fields) != 3 || fields[0] == "" {
			return nil, fmt.Errorf("%w: line %d: expected login:x:password", errors.ErrUserDBSyntax, lineNumber)
		}

		rule := userDBRule{allow: true}
		password := fields[2]

		if strings.HasPrefix(password, "!") {
			rule.allow = false
			password = strings.TrimPrefix(password, "!")
		}

		var err error

		if rule.login, err = parseMatcher(fields[0], false); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", errors.ErrUserDBSyntax, lineNumber, err)
		}

		if rule.password, err = parseMatcher(password, true); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", errors.ErrUserDBSyntax, lineNumber, err)
		}

		userDB.rules = append(userDB.rules, rule)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return userDB, nil
}

// CheckLogin returns the policy of the first matching rule, or false if no rule matches.
func (u *UserDB) CheckLogin(_ context.Context, username string, password string, _ string) bool {
	for _, rule := range u.rules {
		if !rule.login.match(username) {
			continue
		}

		if rule.password.match(password) {
			return rule.allow
		}
	}

	return false
}
