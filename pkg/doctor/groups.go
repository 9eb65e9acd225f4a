package doctor

// groupDefinitions defines the check groups with their metadata.
var groupDefinitions = map[string]struct {
	Name        string
	Description string
	CheckIDs    []string
}{
	GroupEngine: {
		Name:        "Docker Engine",
		Description: "Container engine required to run stacks",
		CheckIDs:    []string{IDEngine, IDCompose, IDService},
	},
	GroupProvisioning: {
		Name:        "Provisioning",
		Description: "Host preconditions for stack provisioning",
		CheckIDs:    []string{IDSharedGroup, IDWorkspace},
	},
}

// GetGroups returns all check groups.
func GetGroups() []CheckGroup {
	var groups []CheckGroup
	for _, groupID := range GetAllGroupIDs() {
		def := groupDefinitions[groupID]
		groups = append(groups, CheckGroup{
			ID:          groupID,
			Name:        def.Name,
			Description: def.Description,
		})
	}
	return groups
}

// GetGroupDefinition returns the definition for a specific group.
func GetGroupDefinition(groupID string) (struct {
	Name        string
	Description string
	CheckIDs    []string
}, bool) {
	def, ok := groupDefinitions[groupID]
	return def, ok
}

// GetAllGroupIDs returns all group IDs in display order.
func GetAllGroupIDs() []string {
	return []string{GroupEngine, GroupProvisioning}
}
