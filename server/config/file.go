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
	"fmt"
	"time"

	"github.com/croessner/honeyauth/server/definitions"
)

// File is the root of the configuration file.
type File struct {
	Server   *ServerSection   `mapstructure:"server" validate:"omitempty"`
	Honeypot *HoneypotSection `mapstructure:"honeypot" validate:"omitempty"`
	SSH      *SSHSection      `mapstructure:"ssh" validate:"omitempty"`
	UserDB   *UserDBSection   `mapstructure:"userdb" validate:"omitempty"`
	Random   *RandomSection   `mapstructure:"random" validate:"omitempty"`
	LDAP     *LDAPSection     `mapstructure:"ldap" validate:"omitempty"`
	Lua      *LuaSection      `mapstructure:"lua" validate:"omitempty"`
	Redis    *RedisSection    `mapstructure:"redis" validate:"omitempty"`
	Audit    *AuditSection    `mapstructure:"audit" validate:"omitempty"`
	Tracing  *TracingSection  `mapstructure:"tracing" validate:"omitempty"`
}

func (f *File) String() string {
	if f == nil {
		return "File: <nil>"
	}

	return fmt.Sprintf("File: {Server[%s] Honeypot[%s] SSH[%s] Audit[%s]}", f.Server, f.Honeypot, f.SSH, f.Audit)
}

func (f *File) GetServer() *ServerSection {
	if f == nil {
		return nil
	}

	return f.Server
}

func (f *File) GetHoneypot() *HoneypotSection {
	if f == nil {
		return nil
	}

	return f.Honeypot
}

func (f *File) GetSSH() *SSHSection {
	if f == nil {
		return nil
	}

	return f.SSH
}

func (f *File) GetUserDB() *UserDBSection {
	if f == nil {
		return nil
	}

	return f.UserDB
}

func (f *File) GetRandom() *RandomSection {
	if f == nil {
		return nil
	}

	return f.Random
}

func (f *File) GetLDAP() *LDAPSection {
	if f == nil {
		return nil
	}

	return f.LDAP
}

func (f *File) GetLua() *LuaSection {
	if f == nil {
		return nil
	}

	return f.Lua
}

func (f *File) GetRedis() *RedisSection {
	if f == nil {
		return nil
	}

	return f.Redis
}

func (f *File) GetAudit() *AuditSection {
	if f == nil {
		return nil
	}

	return f.Audit
}

func (f *File) GetTracing() *TracingSection {
	if f == nil {
		return nil
	}

	return f.Tracing
}

// ServerSection holds process wide settings.
type ServerSection struct {
	InstanceName string     `mapstructure:"instance_name" validate:"omitempty,max=255"`
	HTTPAddress  string     `mapstructure:"http_address" validate:"omitempty,hostname_port"`
	Log          LogSection `mapstructure:"log"`
}

func (s *ServerSection) String() string {
	if s == nil {
		return "<nil>"
	}

	return fmt.Sprintf("{InstanceName: %s, HTTPAddress: %s, Log: %+v}", s.InstanceName, s.HTTPAddress, s.Log)
}

// GetInstanceName returns the instance name used in log lines.
func (s *ServerSection) GetInstanceName() string {
	if s == nil || s.InstanceName == "" {
		return definitions.DefaultInstanceName
	}

	return s.InstanceName
}

// GetHTTPAddress returns the listen address of the ops HTTP server. An empty string disables it.
func (s *ServerSection) GetHTTPAddress() string {
	if s == nil {
		return ""
	}

	return s.HTTPAddress
}

// GetLog returns the log settings.
func (s *ServerSection) GetLog() LogSection {
	if s == nil {
		return LogSection{Level: "info"}
	}

	return s.Log
}

// LogSection configures the process logger.
type LogSection struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=none error warn info debug"`
	JSON  bool   `mapstructure:"json"`
	Color bool   `mapstructure:"color"`
}

// HoneypotSection holds the settings of the credential checkers.
type HoneypotSection struct {
	SensorName        string `mapstructure:"sensor_name" validate:"omitempty,max=255"`
	AuthClass         string `mapstructure:"auth_class" validate:"omitempty,auth_class"`
	PasswordPublicKey string `mapstructure:"pw_pubkey" validate:"omitempty,pw_pubkey"`
	StrictAuthClass   bool   `mapstructure:"strict_auth_class"`
}

func (h *HoneypotSection) String() string {
	if h == nil {
		return "<nil>"
	}

	// The public key is not secret, but there is no reason to print it either.
	return fmt.Sprintf("{SensorName: %s, AuthClass: %s, Encryption: %t, StrictAuthClass: %t}",
		h.SensorName, h.AuthClass, h.PasswordPublicKey != "", h.StrictAuthClass)
}

// GetSensorName returns the sensor name added to every audit record.
func (h *HoneypotSection) GetSensorName() string {
	if h == nil || h.SensorName == "" {
		return definitions.DefaultSensorName
	}

	return h.SensorName
}

// GetAuthClass returns the configured backend identifier or an empty string.
func (h *HoneypotSection) GetAuthClass() string {
	if h == nil {
		return ""
	}

	return h.AuthClass
}

// GetPasswordPublicKey returns the base64 encoded password encryption key or an empty string.
func (h *HoneypotSection) GetPasswordPublicKey() string {
	if h == nil {
		return ""
	}

	return h.PasswordPublicKey
}

// IsStrictAuthClass reports whether an unknown auth_class is a configuration error.
func (h *HoneypotSection) IsStrictAuthClass() bool {
	if h == nil {
		return false
	}

	return h.StrictAuthClass
}

// SSHSection configures the SSH listener.
type SSHSection struct {
	Address          string        `mapstructure:"address" validate:"omitempty,hostname_port"`
	Version          string        `mapstructure:"version" validate:"omitempty,startswith=SSH-2.0-"`
	HostKeyFile      string        `mapstructure:"host_key_file"`
	MaxAuthTries     int           `mapstructure:"max_auth_tries" validate:"omitempty,min=1,max=100"`
	AllowNoneAuth    bool          `mapstructure:"allow_none_auth"`
	ProxyProtocol    bool          `mapstructure:"proxy_protocol"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" validate:"omitempty,min=1s"`
	PromptTimeout    time.Duration `mapstructure:"prompt_timeout" validate:"omitempty,min=1s"`
}

func (s *SSHSection) String() string {
	if s == nil {
		return "<nil>"
	}

	return fmt.Sprintf("{Address: %s, Version: %s, AllowNoneAuth: %t, ProxyProtocol: %t}",
		s.Address, s.Version, s.AllowNoneAuth, s.ProxyProtocol)
}

func (s *SSHSection) GetAddress() string {
	if s == nil || s.Address == "" {
		return definitions.DefaultSSHAddress
	}

	return s.Address
}

func (s *SSHSection) GetVersion() string {
	if s == nil || s.Version == "" {
		return definitions.DefaultSSHVersion
	}

	return s.Version
}

func (s *SSHSection) GetHostKeyFile() string {
	if s == nil || s.HostKeyFile == "" {
		return definitions.DefaultHostKeyFile
	}

	return s.HostKeyFile
}

func (s *SSHSection) GetMaxAuthTries() int {
	if s == nil || s.MaxAuthTries == 0 {
		return definitions.DefaultMaxAuthTries
	}

	return s.MaxAuthTries
}

func (s *SSHSection) IsNoneAuthAllowed() bool {
	if s == nil {
		return false
	}

	return s.AllowNoneAuth
}

func (s *SSHSection) IsProxyProtocol() bool {
	if s == nil {
		return false
	}

	return s.ProxyProtocol
}

func (s *SSHSection) GetHandshakeTimeout() time.Duration {
	if s == nil || s.HandshakeTimeout == 0 {
		return definitions.DefaultHandshakeTimeout
	}

	return s.HandshakeTimeout
}

func (s *SSHSection) GetPromptTimeout() time.Duration {
	if s == nil || s.PromptTimeout == 0 {
		return definitions.DefaultPromptTimeout
	}

	return s.PromptTimeout
}
