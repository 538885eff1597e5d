package engine

import (
	"github.com/aida/autonomy/internal/decision"
)

// qualificationActions plans follow-on operations for a qualification
// verdict. Higher autonomy levels get richer automated action lists; lower
// levels fall back to drafting and flagging for a human. Certain sources
// prepend a priority action.
func qualificationActions(verdict string, level decision.AutonomyLevel, source string) []string {
	var actions []string

	switch verdict {
	case OutcomeQualify:
		switch {
		case level >= decision.LevelDelegated:
			actions = []string{
				"create_deal",
				"auto_assign_to_sales",
				"send_welcome_email",
				"schedule_follow_up_task",
				"add_to_hot_leads_list",
			}
		case level >= decision.LevelSupervised:
			actions = []string{
				"create_deal",
				"assign_to_sales",
				"send_welcome_email",
				"create_follow_up_task",
			}
		default:
			actions = []string{
				"notify_sales_team",
				"draft_welcome_email",
				"flag_for_immediate_review",
			}
		}
	case OutcomeReject:
		if level >= decision.LevelDelegated {
			actions = []string{"add_to_newsletter", "tag_as_future_opportunity"}
		} else {
			actions = []string{"add_to_nurture", "tag_for_future_review"}
		}
	default: // review
		if level >= decision.LevelSupervised {
			actions = []string{
				"add_to_nurture_sequence",
				"request_additional_info",
				"score_monitoring",
			}
		} else {
			actions = []string{
				"manual_qualification",
				"request_more_info",
			}
		}
	}

	switch source {
	case "demo_request":
		actions = append([]string{"schedule_demo"}, actions...)
	case "pricing_page", "contact_sales":
		actions = append([]string{"priority_sales_contact"}, actions...)
	}

	return actions
}

func progressionActions(verdict string) []string {
	switch verdict {
	case OutcomeApproveProgression:
		return []string{"advance_stage", "notify_owner", "update_forecast"}
	case OutcomeApproveConditional:
		return []string{"advance_stage", "attach_conditions", "schedule_check_in"}
	default:
		return []string{"queue_for_review", "request_stage_justification"}
	}
}

func communicationActions(verdict string) []string {
	switch verdict {
	case OutcomeSendImmediately:
		return []string{"dispatch_message", "log_communication"}
	case OutcomeSendWithTracking:
		return []string{"dispatch_message", "enable_tracking", "log_communication"}
	default:
		return []string{"queue_for_approval", "notify_owner"}
	}
}

func valueUpdateActions(verdict string) []string {
	if verdict == OutcomeApproveUpdate {
		return []string{"apply_value_change", "update_forecast", "notify_owner"}
	}
	return []string{"queue_for_review", "request_value_justification"}
}
