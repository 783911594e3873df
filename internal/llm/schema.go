package llm

import "sort"

// BuildReportJSONSchema returns the response schema as a generic map. It is
// sent upstream as the structured output constraint and used locally to
// validate the response. Every field is required.
func BuildReportJSONSchema() map[string]any {
	return object(map[string]any{
		"slide_4_summary": object(map[string]any{
			"title":   str(),
			"insight": str(),
			"headers": array(str()),
			"metrics": array(object(map[string]any{
				"label":  str(),
				"values": array(map[string]any{"type": []string{"number", "string"}}),
			})),
		}),
		"slide_5_page_ranking": object(map[string]any{
			"insight": str(),
			"ranking": array(object(map[string]any{
				"rank":  rank(),
				"url":   str(),
				"views": count(),
			})),
		}),
		"slide_7_video_ranking": object(map[string]any{
			"insight": str(),
			"ranking": array(object(map[string]any{
				"rank":  rank(),
				"title": str(),
				"views": count(),
			})),
		}),
		"slide_10_engagement": object(map[string]any{
			"insight": str(),
			"metrics": object(map[string]any{
				"avg_session_duration_multiplier": str(),
				"pv_per_user_multiplier":          str(),
				"return_rate_multiplier":          str(),
				"session_pv_multiplier":           str(),
			}),
			"table_rows": array(object(map[string]any{
				"metric_name":      str(),
				"viewer_value":     str(),
				"non_viewer_value": str(),
				"multiplier":       str(),
			})),
		}),
		"slide_11_conversion": object(map[string]any{
			"insight":        str(),
			"viewer_cvr":     str(),
			"non_viewer_cvr": str(),
			"multiplier":     str(),
			"table_data": object(map[string]any{
				"total_users_viewer":     count(),
				"total_users_non_viewer": count(),
				"cv_users_viewer":        count(),
				"cv_users_non_viewer":    count(),
			}),
		}),
	})
}

// object marks every property as required.
func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func array(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func str() map[string]any { return map[string]any{"type": "string"} }

func rank() map[string]any { return map[string]any{"type": "integer", "minimum": 1} }

func count() map[string]any { return map[string]any{"type": "integer", "minimum": 0} }
