/*
Framolux Core
Copyright (C) 2025 The Framolux Authors

This file is part of Framolux Core.

Framolux Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Framolux Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Framolux Core.  If not, see <http://www.gnu.org/licenses/>.
*/

package config

import (
	"maps"
	"net/url"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// CredentialEntry holds credentials for a URL: an API key for panels, or
// a username and password for MQTT brokers.
type CredentialEntry struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	APIKey   string `toml:"api_key"`
}

// schemeAliases maps protocol variants to their canonical form.
var schemeAliases = map[string]string{
	"tcp": "mqtt",
	"ssl": "mqtts",
	"ws":  "http",
	"wss": "https",
}

type authCredsFormat struct {
	Creds map[string]CredentialEntry `toml:"creds"`
}

// LoadAuthFromData parses auth.toml. Entries may sit at the root
// (["http://192.168.1.50"]) or under creds ([creds."tcp://broker:1883"]);
// both are merged.
func LoadAuthFromData(data []byte) map[string]CredentialEntry {
	result := make(map[string]CredentialEntry)

	var root map[string]CredentialEntry
	if err := toml.Unmarshal(data, &root); err == nil {
		for k, v := range root {
			if k != "creds" {
				result[k] = v
			}
		}
	}

	var creds authCredsFormat
	if err := toml.Unmarshal(data, &creds); err == nil {
		maps.Copy(result, creds.Creds)
	}

	return result
}

func normalizeScheme(scheme string) string {
	lower := strings.ToLower(scheme)
	if canonical, ok := schemeAliases[lower]; ok {
		return canonical
	}
	return lower
}

func isSchemelessKey(key string) bool {
	return !strings.Contains(key, "://")
}

// LookupAuth finds credentials for reqURL. Exact scheme matches win, then
// canonical scheme matches (tcp:// against mqtt://), then bare host:port
// or host keys.
func LookupAuth(creds map[string]CredentialEntry, reqURL string) *CredentialEntry {
	if len(creds) == 0 {
		return nil
	}

	u, err := url.Parse(reqURL)
	if err != nil {
		log.Warn().Msgf("invalid auth request url: %s", reqURL)
		return nil
	}

	match := func(sameScheme func(defScheme string) bool) *CredentialEntry {
		for k, v := range creds {
			if isSchemelessKey(k) {
				continue
			}
			defURL, err := url.Parse(k)
			if err != nil {
				log.Error().Msgf("invalid auth config url: %s", k)
				continue
			}
			if sameScheme(defURL.Scheme) &&
				strings.EqualFold(defURL.Host, u.Host) &&
				strings.HasPrefix(u.Path, defURL.Path) {
				return &v
			}
		}
		return nil
	}

	if cred := match(func(s string) bool { return strings.EqualFold(s, u.Scheme) }); cred != nil {
		return cred
	}
	scheme := normalizeScheme(u.Scheme)
	if cred := match(func(s string) bool { return normalizeScheme(s) == scheme }); cred != nil {
		return cred
	}

	for k, v := range creds {
		if !isSchemelessKey(k) {
			continue
		}
		if strings.EqualFold(k, u.Host) || strings.EqualFold(k, u.Hostname()) {
			return &v
		}
	}

	return nil
}

// LookupAuth resolves credentials for reqURL from the loaded auth file.
func (c *Instance) LookupAuth(reqURL string) *CredentialEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return LookupAuth(c.auth, reqURL)
}
