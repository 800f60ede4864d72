package mcp

func (s *Server) listTools() interface{} {
	return map[string]interface{}{
		"tools": []interface{}{
			map[string]interface{}{
				"name":        "list_participants",
				"description": "List the participant ids available in the study data directory.",
				"inputSchema": map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{},
				},
			},
			map[string]interface{}{
				"name":        "get_event_adherence",
				"description": "Compute the per-event-stream adherence report for one participant: every scheduled window projected onto the calendar with its completion state, plus overall adherence percentage and study progression.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"participant_id": map[string]interface{}{"type": "string", "description": "Participant id (file name under participants/)"},
						"as_of":          map[string]interface{}{"type": "string", "description": "Optional evaluation instant (RFC 3339). Default: now."},
					},
					"required": []string{"participant_id"},
				},
			},
			map[string]interface{}{
				"name":        "get_study_adherence",
				"description": "Compute the whole-study weekly adherence report for one participant: all event streams merged onto one calendar, bucketed into 7-day weeks with per-week percentages, the current-week detail including carried-over unresolved prior activity, and the next upcoming activity when the timeline is still in the future.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"participant_id": map[string]interface{}{"type": "string", "description": "Participant id (file name under participants/)"},
						"as_of":          map[string]interface{}{"type": "string", "description": "Optional evaluation instant (RFC 3339). Default: now."},
					},
					"required": []string{"participant_id"},
				},
			},
		},
	}
}
