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

package config

import (
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/croessner/honeyauth/server/definitions"
	"github.com/croessner/honeyauth/server/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AuthClassLookup reports whether a backend identifier is known.
type AuthClassLookup func(name string) bool

// setDefaults registers every key on v, which is also required for environment overrides to be picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.instance_name", definitions.DefaultInstanceName)
	v.SetDefault("server.http_address", "")
	v.SetDefault("server.log.level", "info")
	v.SetDefault("server.log.json", false)
	v.SetDefault("server.log.color", false)

	v.SetDefault("honeypot.sensor_name", definitions.DefaultSensorName)
	v.SetDefault("honeypot.auth_class", "")
	v.SetDefault("honeypot.pw_pubkey", "")
	v.SetDefault("honeypot.strict_auth_class", false)

	v.SetDefault("ssh.address", definitions.DefaultSSHAddress)
	v.SetDefault("ssh.version", definitions.DefaultSSHVersion)
	v.SetDefault("ssh.host_key_file", definitions.DefaultHostKeyFile)
	v.SetDefault("ssh.max_auth_tries", definitions.DefaultMaxAuthTries)
	v.SetDefault("ssh.allow_none_auth", false)
	v.SetDefault("ssh.proxy_protocol", false)
	v.SetDefault("ssh.handshake_timeout", definitions.DefaultHandshakeTimeout)
	v.SetDefault("ssh.prompt_timeout", definitions.DefaultPromptTimeout)

	v.SetDefault("userdb.path", "")

	v.SetDefault("random.min_try", definitions.DefaultRandomMinTry)
	v.SetDefault("random.max_try", definitions.DefaultRandomMaxTry)
	v.SetDefault("random.max_cache", definitions.DefaultRandomMaxCache)

	v.SetDefault("ldap.server_uri", "")
	v.SetDefault("ldap.bind_dn", definitions.DefaultLDAPBindDN)
	v.SetDefault("ldap.starttls", false)
	v.SetDefault("ldap.tls_skip_verify", false)
	v.SetDefault("ldap.timeout", definitions.DefaultLDAPTimeout)

	v.SetDefault("lua.script_path", "")
	v.SetDefault("lua.function", definitions.DefaultLuaFunction)

	v.SetDefault("redis.address", definitions.DefaultRedisAddress)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.prefix", definitions.DefaultRedisPrefix)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.tls", false)

	v.SetDefault("audit.sinks", []string{definitions.SinkLog, definitions.SinkMetrics})
	v.SetDefault("audit.json_file", "")
	v.SetDefault("audit.redis_channel", definitions.DefaultAuditChannel)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "otlphttp")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sampler_ratio", 1.0)
	v.SetDefault("tracing.service_name", "")
	v.SetDefault("tracing.propagators", []string{"tracecontext", "baggage"})
	v.SetDefault("tracing.log_export_results", false)
}

// NewViper returns a viper instance with defaults, environment binding (prefix HONEYAUTH_) and the config search
// path. If path is not empty, only that file is read.
func NewViper(path string) *viper.Viper {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("honeyauth")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		return v
	}

	v.SetConfigName("honeyauth") // name of config file (without extension)
	v.SetConfigType("yaml")
	v.AddConfigPath("/usr/local/etc/honeyauth/")
	v.AddConfigPath("/etc/honeyauth/")
	v.AddConfigPath("$HOME/.honeyauth")
	v.AddConfigPath(".")

	return v
}

// NewConfigFile reads, decodes and validates the configuration. A missing file in the search path is not an error;
// defaults and environment variables apply in that case.
func NewConfigFile(path string, lookup AuthClassLookup) (*File, error) {
	v := NewViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError

		if path != "" || !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return Decode(v, lookup)
}

// Decode unmarshals the settings of v into a File and validates it.
func Decode(v *viper.Viper, lookup AuthClassLookup) (*File, error) {
	newCfg := &File{}

	err := v.Unmarshal(newCfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err = newCfg.Validate(lookup); err != nil {
		return nil, err
	}

	return newCfg, nil
}

// Validate checks the struct tags of all sections. The auth_class is only checked against lookup if
// strict_auth_class is enabled; otherwise an unknown auth_class falls back to the default backend at runtime.
func (f *File) Validate(lookup AuthClassLookup) error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	strict := f.GetHoneypot().IsStrictAuthClass()

	_ = validate.RegisterValidation("auth_class", func(fl validator.FieldLevel) bool {
		if !strict || lookup == nil {
			return true
		}

		return lookup(fl.Field().String())
	})

	_ = validate.RegisterValidation("pw_pubkey", validatePasswordPublicKey)

	if err := validate.Struct(f); err != nil {
		var validationErrors validator.ValidationErrors

		if stderrors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				if fieldErr.Tag() == "auth_class" {
					return fmt.Errorf("%w: <%v>", errors.ErrUnknownAuthClass, fieldErr.Value())
				}

				if fieldErr.Tag() == "pw_pubkey" {
					return fmt.Errorf("%w: expected base64 encoded %d byte key", errors.ErrCryptoConfig, definitions.PasswordPublicKeySize)
				}
			}
		}

		return fmt.Errorf("validate config: %w", err)
	}

	if random := f.GetRandom(); random.GetMinTry() > random.GetMaxTry() {
		return errors.ErrRandomRange
	}

	// The handshake deadline covers the whole login phase, so a prompt must time out first.
	if sshCfg := f.GetSSH(); sshCfg.GetPromptTimeout() >= sshCfg.GetHandshakeTimeout() {
		return fmt.Errorf("%w: prompt_timeout %s, handshake_timeout %s", errors.ErrSSHTimeouts,
			sshCfg.GetPromptTimeout(), sshCfg.GetHandshakeTimeout())
	}

	return nil
}

// validatePasswordPublicKey checks that pw_pubkey decodes to a Curve25519 public key.
func validatePasswordPublicKey(fl validator.FieldLevel) bool {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}

	return len(raw) == definitions.PasswordPublicKeySize
}
