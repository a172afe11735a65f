package backendselect

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/ecocollect-dev/ecocollect/internal/cli/config"
	"github.com/ecocollect-dev/ecocollect/internal/cli/userconfig"
)

// ResolveBackend determines which backend to use based on the
// following priority:
//  1. If the alias flag is provided, use that backend
//  2. If the user has a selected backend in their local config, use that
//  3. If only one backend is configured, use that
//  4. Otherwise, prompt the user to select a backend interactively
func ResolveBackend(projectConfig *config.Config, alias string) (*config.Backend, error) {
	if alias != "" {
		backend, err := projectConfig.GetBackendByAlias(alias)
		if err != nil {
			return nil, err
		}
		return backend, nil
	}

	selectedURL, err := userconfig.GetSelectedBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		backend, err := getBackendByURL(projectConfig, selectedURL)
		if err != nil {
			// Selected backend no longer exists in project config, clear
			// it and continue.
			_ = userconfig.SetSelectedBackend("")
		} else {
			return backend, nil
		}
	}

	if len(projectConfig.Backends) == 1 {
		backend := &projectConfig.Backends[0]
		if err := userconfig.SetSelectedBackend(backend.URL); err != nil {
			fmt.Printf("Warning: failed to save selected backend: %v\n", err)
		}
		return backend, nil
	}

	backend, err := PromptBackendSelection(projectConfig)
	if err != nil {
		return nil, err
	}

	if err := userconfig.SetSelectedBackend(backend.URL); err != nil {
		fmt.Printf("Warning: failed to save selected backend: %v\n", err)
	}

	return backend, nil
}

// PromptBackendSelection shows an interactive prompt for the user to
// select a backend.
func PromptBackendSelection(projectConfig *config.Config) (*config.Backend, error) {
	if len(projectConfig.Backends) == 0 {
		return nil, fmt.Errorf("no backends configured in %s", config.ConfigFileName)
	}

	type backendOption struct {
		Label   string
		Backend *config.Backend
	}

	options := make([]backendOption, len(projectConfig.Backends))
	for i := range projectConfig.Backends {
		backend := &projectConfig.Backends[i]
		options[i] = backendOption{
			Label:   fmt.Sprintf("%s (%s)", backend.Alias, backend.URL),
			Backend: backend,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a backend",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend selection cancelled: %w", err)
	}

	return options[index].Backend, nil
}

func getBackendByURL(cfg *config.Config, url string) (*config.Backend, error) {
	for i := range cfg.Backends {
		if cfg.Backends[i].URL == url {
			return &cfg.Backends[i], nil
		}
	}
	return nil, fmt.Errorf("backend with URL '%s' not found in project config", url)
}
