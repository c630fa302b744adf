// Package requirements checks whether a registrant has attended the topics
// an event builds on.
//
// Lookups are a single hop: a required topic is fulfilled by any active
// registration for any date of that topic. The requirements of the required
// topic are not followed, so cyclic requirement data always terminates.
package requirements

import "github.com/Shivanand-hulikatti/seminar-registration/internal/model"

// MissingRequirements returns the required topics of e that the registrant
// holds no active registration for, in the order e declares them.
func MissingRequirements(e *model.Event, registrant model.Registrant) []model.TopicRef {
	if len(e.Requirements) == 0 {
		return nil
	}

	attended := make(map[string]struct{}, len(registrant.History))
	for _, reg := range registrant.History {
		if !reg.IsActive() {
			continue
		}
		attended[topicOf(reg)] = struct{}{}
	}

	var missing []model.TopicRef
	seen := make(map[string]struct{}, len(e.Requirements))
	for _, topic := range e.Requirements {
		if _, dup := seen[topic.ID]; dup {
			continue
		}
		seen[topic.ID] = struct{}{}
		if _, ok := attended[topic.ID]; !ok {
			missing = append(missing, topic)
		}
	}
	return missing
}

// FulfillsRequirements reports whether nothing is missing.
func FulfillsRequirements(e *model.Event, registrant model.Registrant) bool {
	return len(MissingRequirements(e, registrant)) == 0
}

func topicOf(reg model.Registration) string {
	if reg.TopicID != "" {
		return reg.TopicID
	}
	return reg.EventID
}
