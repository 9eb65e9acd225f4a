package doctor

import (
	"path/filepath"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/jaspreet-dot-casa/stackprov/pkg/identity"
	"github.com/jaspreet-dot-casa/stackprov/pkg/sysexec"
)

// MinEngineVersion is the oldest engine release the provisioning flow is
// exercised against; older engines still work but get flagged.
const MinEngineVersion = "24.0.0"

var (
	engineVersionRegex  = regexp.MustCompile(`Docker version (\d+\.\d+\.\d+)`)
	composeVersionRegex = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)
)

// CheckEngine checks if the docker engine is installed and recent enough.
func CheckEngine(exec sysexec.CommandExecutor) Check {
	check := Check{
		ID:          IDEngine,
		Name:        "Docker Engine",
		Description: "Container engine",
		FixCommand:  GetFixCommand(IDEngine),
	}

	path, err := exec.LookPath("docker")
	if err != nil {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	output, err := exec.Run(path, "--version")
	if err != nil {
		check.Status = StatusOK
		check.Message = "installed (version unknown)"
		return check
	}

	matches := engineVersionRegex.FindStringSubmatch(output)
	if len(matches) < 2 {
		check.Status = StatusOK
		check.Message = "installed"
		return check
	}

	installed, err := goversion.NewVersion(matches[1])
	if err != nil {
		check.Status = StatusOK
		check.Message = matches[1]
		return check
	}

	minimum := goversion.Must(goversion.NewVersion(MinEngineVersion))
	if installed.LessThan(minimum) {
		check.Status = StatusWarning
		check.Message = matches[1] + " (older than " + MinEngineVersion + ")"
		return check
	}

	check.Status = StatusOK
	check.Message = matches[1]
	return check
}

// CheckCompose checks if the compose plugin is installed.
func CheckCompose(exec sysexec.CommandExecutor) Check {
	check := Check{
		ID:          IDCompose,
		Name:        "Compose plugin",
		Description: "Runs the per-stack compose descriptors",
		FixCommand:  GetFixCommand(IDCompose),
	}

	if _, err := exec.LookPath("docker"); err != nil {
		check.Status = StatusMissing
		check.Message = "docker not installed"
		return check
	}

	output, err := exec.Run("docker", "compose", "version")
	if err != nil {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	if version := composeVersionRegex.FindStringSubmatch(output); len(version) >= 2 {
		check.Status = StatusOK
		check.Message = version[1]
	} else {
		check.Status = StatusOK
		check.Message = "installed"
	}
	return check
}

// CheckService checks whether the engine service is active.
func CheckService(exec sysexec.CommandExecutor, service string) Check {
	check := Check{
		ID:          IDService,
		Name:        "Engine service",
		Description: "systemd unit for the container engine",
		FixCommand:  GetFixCommand(IDService),
	}

	output, err := exec.Run("systemctl", "is-active", service)
	state := strings.TrimSpace(output)
	if err != nil || state != "active" {
		if state == "" {
			state = "unknown"
		}
		check.Status = StatusWarning
		check.Message = state
		return check
	}

	check.Status = StatusOK
	check.Message = "active"
	return check
}

// CheckSharedGroup checks that the shared group exists. Provisioning
// refuses to run without it and never creates it implicitly.
func CheckSharedGroup(dir identity.Directory, group string) Check {
	check := Check{
		ID:          IDSharedGroup,
		Name:        "Shared group",
		Description: "Group granting access to container paths",
		FixCommand:  GetFixCommand(IDSharedGroup),
	}

	if _, err := dir.LookupGroup(group); err != nil {
		check.Status = StatusMissing
		check.Message = "group " + group + " does not exist"
		return check
	}

	check.Status = StatusOK
	check.Message = group
	return check
}

// CheckWorkspace checks whether the workspace tree has been initialized.
func CheckWorkspace(exec sysexec.CommandExecutor, home, workspaceDir string) Check {
	check := Check{
		ID:          IDWorkspace,
		Name:        "Workspace",
		Description: "Per-user stack workspace tree",
	}

	path := filepath.Join(home, workspaceDir)
	if exec.FileExists(path) {
		check.Status = StatusOK
		check.Message = path
	} else {
		check.Status = StatusWarning
		check.Message = "not initialized; run: scli stack <name>"
	}
	return check
}
