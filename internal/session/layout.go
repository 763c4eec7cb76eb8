package session

import (
	"fmt"
	"path/filepath"
)

// Layout locates everything the provisioner reads and writes.
//
//	<BaseDir>/wg(.exe)
//	<BaseDir>/server_keys/<name>_{private,public}.key
//	<BaseDir>/clients_keys/<name>/client<i>_{private,public}.key
//	<BaseDir>/clients_keys/<name>/state.toml
//	<BaseDir>/Data/Configurations/<name>.conf
//	<OutputDir>/clients_configs/<name>/client<i>.conf
type Layout struct {
	BaseDir   string
	OutputDir string
}

func (l Layout) ServerKeysDir() string {
	return filepath.Join(l.BaseDir, "server_keys")
}

func (l Layout) ClientKeysDir(name string) string {
	return filepath.Join(l.BaseDir, "clients_keys", name)
}

func (l Layout) ConfigurationsDir() string {
	return filepath.Join(l.BaseDir, "Data", "Configurations")
}

func (l Layout) ServerConfigPath(name string) string {
	return filepath.Join(l.ConfigurationsDir(), name+".conf")
}

// ImportedServerConfigPath is where WireGuard for Windows moves a config once
// it has been imported and encrypted.
func (l Layout) ImportedServerConfigPath(name string) string {
	return l.ServerConfigPath(name) + ".dpapi"
}

func (l Layout) StatePath(name string) string {
	return filepath.Join(l.ClientKeysDir(name), "state.toml")
}

func (l Layout) ClientConfigsDir(name string) string {
	return filepath.Join(l.OutputDir, "clients_configs", name)
}

func (l Layout) ClientConfigPath(name string, index int) string {
	return filepath.Join(l.ClientConfigsDir(name), ClientName(index)+".conf")
}

func (l Layout) ClientQRPath(name string, index int) string {
	return filepath.Join(l.ClientConfigsDir(name), ClientName(index)+".png")
}

func ClientName(index int) string {
	return fmt.Sprintf("client%d", index)
}
