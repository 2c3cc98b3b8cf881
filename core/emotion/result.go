package emotion

import (
	"encoding/json"
	"fmt"

	"moodtune/model"
)

// Labels extracts the "emotions" array of a prediction reply, keeping only
// known labels in reply order without duplicates.
func Labels(body []byte) ([]model.Label, error) {
	var reply struct {
		Emotions []string `json:"emotions"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	labels := make([]model.Label, 0, len(reply.Emotions))
	for _, e := range reply.Emotions {
		l := model.Label(e)
		if l.Valid() && !model.LabelList(labels).Contains(l) {
			labels = append(labels, l)
		}
	}
	return labels, nil
}
