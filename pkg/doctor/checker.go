package doctor

import (
	"github.com/jaspreet-dot-casa/stackprov/pkg/config"
	"github.com/jaspreet-dot-casa/stackprov/pkg/identity"
	"github.com/jaspreet-dot-casa/stackprov/pkg/sysexec"
)

// Checker provides dependency checking functionality.
type Checker struct {
	executor sysexec.CommandExecutor
	dir      identity.Directory
	cfg      *config.Config
	home     string // acting user's home, for the workspace check
}

// NewChecker creates a new Checker with the real command executor and
// user database.
func NewChecker(cfg *config.Config, home string) *Checker {
	return &Checker{
		executor: &sysexec.RealExecutor{},
		dir:      &identity.OSDirectory{},
		cfg:      cfg,
		home:     home,
	}
}

// NewCheckerWith creates a new Checker with custom dependencies (for testing).
func NewCheckerWith(exec sysexec.CommandExecutor, dir identity.Directory, cfg *config.Config, home string) *Checker {
	return &Checker{
		executor: exec,
		dir:      dir,
		cfg:      cfg,
		home:     home,
	}
}

// CheckAll runs all checks and returns groups with results.
func (c *Checker) CheckAll() []CheckGroup {
	var result []CheckGroup
	for _, group := range GetGroups() {
		result = append(result, c.CheckGroup(group.ID))
	}
	return result
}

// CheckGroup runs all checks for a specific group.
func (c *Checker) CheckGroup(groupID string) CheckGroup {
	def, ok := GetGroupDefinition(groupID)
	if !ok {
		return CheckGroup{
			ID:   groupID,
			Name: "Unknown",
		}
	}

	group := CheckGroup{
		ID:          groupID,
		Name:        def.Name,
		Description: def.Description,
	}

	for _, checkID := range def.CheckIDs {
		group.Checks = append(group.Checks, c.runCheck(checkID))
	}

	return group
}

// runCheck runs a specific check by ID.
func (c *Checker) runCheck(checkID string) Check {
	switch checkID {
	case IDEngine:
		return CheckEngine(c.executor)
	case IDCompose:
		return CheckCompose(c.executor)
	case IDService:
		return CheckService(c.executor, c.cfg.Docker.Service)
	case IDSharedGroup:
		return CheckSharedGroup(c.dir, c.cfg.SharedGroup)
	case IDWorkspace:
		return CheckWorkspace(c.executor, c.home, c.cfg.WorkspaceDir)
	default:
		return Check{
			ID:      checkID,
			Name:    checkID,
			Status:  StatusError,
			Message: "unknown check",
		}
	}
}

// Summary represents an overall health summary.
type Summary struct {
	Total    int
	OK       int
	Missing  int
	Warnings int
	Errors   int
}

// GetSummary returns a summary of check results.
func (c *Checker) GetSummary(groups []CheckGroup) Summary {
	var summary Summary

	for _, group := range groups {
		for _, check := range group.Checks {
			summary.Total++
			switch check.Status {
			case StatusOK:
				summary.OK++
			case StatusMissing:
				summary.Missing++
			case StatusWarning:
				summary.Warnings++
			case StatusError:
				summary.Errors++
			}
		}
	}

	return summary
}

// HasIssues returns true if any checks have issues.
func (c *Checker) HasIssues(groups []CheckGroup) bool {
	summary := c.GetSummary(groups)
	return summary.Missing > 0 || summary.Errors > 0
}
