package action

import (
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/vars"
	"github.com/lakshaymaurya-felt/cleanml/internal/winreg"
)

// winregFactory deletes a registry key, or one value of it when name is set.
func winregFactory(attrs Attributes, _ *vars.Table) (Provider, error) {
	key, err := attrs.Require("path")
	if err != nil {
		return nil, err
	}
	if _, err := winreg.ParseKey(key); err != nil {
		return nil, err
	}
	var cmd command.RegistryEdit
	if name, ok := attrs["name"]; ok {
		cmd = command.DeleteRegistryValue(key, name)
	} else {
		cmd = command.DeleteRegistryKey(key)
	}
	return Static(cmd), nil
}
