package tui

import (
	"fmt"
	"strings"

	"github.com/jaspreet-dot-casa/stackprov/pkg/doctor"
	"github.com/jaspreet-dot-casa/stackprov/pkg/installer"
	"github.com/jaspreet-dot-casa/stackprov/pkg/provision"
)

// RenderProvisionSummary renders the multi-section report for a stack run.
func RenderProvisionSummary(s *provision.Summary) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Stack "+s.Stack) + "\n")
	fmt.Fprintf(&b, "  User:      %s\n", s.User)
	fmt.Fprintf(&b, "  Group:     %s\n", s.Group)
	fmt.Fprintf(&b, "  Workspace: %s\n", s.WorkspaceBase)
	fmt.Fprintf(&b, "  Data:      %s\n", s.DataRoot)

	b.WriteString("\n" + SectionStyle.Render("Directories") + "\n")
	for _, dir := range s.Dirs {
		fmt.Fprintf(&b, "  %s %s\n", SuccessStyle.Render("✓"), dir)
	}

	b.WriteString("\n" + SectionStyle.Render("Files") + "\n")
	for _, f := range s.Files {
		if f.Created {
			fmt.Fprintf(&b, "  %s %s %s\n", SuccessStyle.Render("✓"), f.Path, MutedStyle.Render("(created)"))
		} else {
			fmt.Fprintf(&b, "  %s %s %s\n", SuccessStyle.Render("✓"), f.Path, MutedStyle.Render("(unchanged)"))
		}
	}

	if len(s.Files) > 0 {
		b.WriteString("\n" + SectionStyle.Render("Next steps") + "\n")
		fmt.Fprintf(&b, "  1. Edit %s\n", s.Files[0].Path)
		fmt.Fprintf(&b, "  2. cd %s && docker compose up -d\n", s.WorkspaceBase+"/stacks/"+s.Stack)
	}

	return b.String()
}

// RenderInstallReport renders the report for an install run.
func RenderInstallReport(r *installer.Report) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Docker Engine installed") + "\n")

	b.WriteString(SectionStyle.Render("Conflicting packages") + "\n")
	for _, o := range r.Removed {
		if o.Succeeded {
			fmt.Fprintf(&b, "  %s removed %s\n", SuccessStyle.Render("✓"), o.Package)
		} else {
			fmt.Fprintf(&b, "  %s %s %s\n", MutedStyle.Render("-"), o.Package, MutedStyle.Render("(not installed)"))
		}
	}

	b.WriteString("\n" + SectionStyle.Render("Repository") + "\n")
	if r.RepoRegistered {
		fmt.Fprintf(&b, "  %s vendor repository registered\n", SuccessStyle.Render("✓"))
	} else {
		fmt.Fprintf(&b, "  %s vendor repository already registered\n", SuccessStyle.Render("✓"))
	}

	b.WriteString("\n" + SectionStyle.Render("Packages") + "\n")
	for _, pkg := range r.Packages {
		fmt.Fprintf(&b, "  %s %s\n", SuccessStyle.Render("✓"), pkg)
	}

	b.WriteString("\n" + SectionStyle.Render("Service and group") + "\n")
	fmt.Fprintf(&b, "  %s service enabled and started\n", SuccessStyle.Render("✓"))
	if r.AddedToGroup {
		fmt.Fprintf(&b, "  %s %s added to group %s\n", SuccessStyle.Render("✓"), r.User, r.Group)
	} else {
		fmt.Fprintf(&b, "  %s %s already in group %s\n", SuccessStyle.Render("✓"), r.User, r.Group)
	}

	b.WriteString("\n" + SectionStyle.Render("Directories") + "\n")
	for _, dir := range r.Dirs {
		fmt.Fprintf(&b, "  %s %s\n", SuccessStyle.Render("✓"), dir)
	}

	if r.AddedToGroup {
		b.WriteString("\n" + WarningStyle.Render("Log out and back in for the group membership to take effect.") + "\n")
	}

	return b.String()
}

// RenderChecks renders doctor check results.
func RenderChecks(groups []doctor.CheckGroup, summary doctor.Summary) string {
	var b strings.Builder

	for _, group := range groups {
		b.WriteString(SectionStyle.Render(group.Name) + " " + MutedStyle.Render(group.Description) + "\n")
		for _, check := range group.Checks {
			b.WriteString("  " + renderCheck(check) + "\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%d checks: %d ok, %d missing, %d warnings, %d errors\n",
		summary.Total, summary.OK, summary.Missing, summary.Warnings, summary.Errors)

	return b.String()
}

func renderCheck(check doctor.Check) string {
	var line string
	switch check.Status {
	case doctor.StatusOK:
		line = fmt.Sprintf("%s %-16s %s", SuccessStyle.Render("✓"), check.Name, MutedStyle.Render(check.Message))
	case doctor.StatusWarning:
		line = fmt.Sprintf("%s %-16s %s", WarningStyle.Render("!"), check.Name, check.Message)
	default:
		line = fmt.Sprintf("%s %-16s %s", ErrorStyle.Render("✗"), check.Name, check.Message)
	}

	if check.Status != doctor.StatusOK && check.FixCommand != nil {
		line += "\n      " + MutedStyle.Render("fix: "+check.FixCommand.Command)
	}
	return line
}
