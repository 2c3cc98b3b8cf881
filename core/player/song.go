package player

import "moodtune/model"

// Song is the part of a catalog entry the player needs.
type Song struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Labels   []model.Label `json:"labels"`
	Duration int           `json:"duration"`
}

// HasLabel reports whether s carries l.
func (s Song) HasLabel(l model.Label) bool {
	return model.LabelList(s.Labels).Contains(l)
}

// SampleSongs is the built-in catalog shown when the server cannot be reached.
func SampleSongs() []Song {
	return []Song{
		{ID: "1", Title: "Sunshine Vibes", Artist: "Chill Beats Collective", Labels: []model.Label{model.LabelFun, model.LabelMotivation}, Duration: 180},
		{ID: "2", Title: "Midnight Thoughts", Artist: "Luna Rivers", Labels: []model.Label{model.LabelSadness, model.LabelLove}, Duration: 240},
		{ID: "3", Title: "Energy Boost", Artist: "Pulse Masters", Labels: []model.Label{model.LabelMotivation, model.LabelFun}, Duration: 200},
		{ID: "4", Title: "Heartfelt Melodies", Artist: "Soul Strings", Labels: []model.Label{model.LabelLove, model.LabelGeneral}, Duration: 220},
		{ID: "5", Title: "Stormy Weather", Artist: "Thunder Sounds", Labels: []model.Label{model.LabelAngry, model.LabelMotivation}, Duration: 190},
		{ID: "6", Title: "Peaceful Moments", Artist: "Zen Garden", Labels: []model.Label{model.LabelGeneral, model.LabelFun}, Duration: 210},
		{ID: "7", Title: "Dream Chaser", Artist: "Vision Quest", Labels: []model.Label{model.LabelMotivation}, Duration: 195},
		{ID: "8", Title: "Sweet Memories", Artist: "Nostalgia Band", Labels: []model.Label{model.LabelLove, model.LabelSadness}, Duration: 230},
	}
}
