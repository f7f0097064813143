// Package curriculum holds the fixed 22-challenge productivity curriculum and
// its extended reference content.
package curriculum

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Size is the number of challenges in the curriculum.
const Size = 22

// HotspotChallenge is the challenge that reviews the seven life areas.
const HotspotChallenge = 14

// Definition is one curriculum item.
type Definition struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Part   int    `json:"part"`
}

// Content is the extended reference material for a challenge.
type Content struct {
	Number       int      `yaml:"number" json:"number"`
	Title        string   `yaml:"title" json:"title"`
	Part         int      `yaml:"part" json:"part"`
	WhatYouGet   string   `yaml:"what_you_get" json:"whatYouGet"`
	TheChallenge string   `yaml:"the_challenge" json:"theChallenge"`
	Steps        []string `yaml:"steps" json:"steps"`
	Tips         []string `yaml:"tips" json:"tips"`
	Questions    []string `yaml:"questions" json:"questions"`
}

var definitions = [Size]Definition{
	{Number: 1, Title: "The Values Challenge", Part: 1},
	{Number: 2, Title: "The Impact Challenge", Part: 1},
	{Number: 3, Title: "The Rule of 3 Challenge", Part: 1},
	{Number: 4, Title: "The Prime-Time Challenge", Part: 2},
	{Number: 5, Title: "The Flipping Challenge", Part: 2},
	{Number: 6, Title: "The Time-Traveling Challenge", Part: 2},
	{Number: 7, Title: "The Disconnecting Challenge", Part: 2},
	{Number: 8, Title: "The Shrink Your Work Challenge", Part: 3},
	{Number: 9, Title: "The Working in Prime Time Challenge", Part: 3},
	{Number: 10, Title: "The Maintenance Challenge", Part: 3},
	{Number: 11, Title: "The Zenning Out Challenge", Part: 3},
	{Number: 12, Title: "The Delegation Challenge", Part: 3},
	{Number: 13, Title: "The Capture Challenge", Part: 4},
	{Number: 14, Title: "The Hot Spot Challenge", Part: 4},
	{Number: 15, Title: "The Wandering Challenge", Part: 4},
	{Number: 16, Title: "The Notification Challenge", Part: 5},
	{Number: 17, Title: "The Single-Tasking Challenge", Part: 5},
	{Number: 18, Title: "The Meditation Challenge", Part: 5},
	{Number: 19, Title: "The Lamest Diet Challenge", Part: 6},
	{Number: 20, Title: "The Water Challenge", Part: 6},
	{Number: 21, Title: "The Heart Rate Challenge", Part: 6},
	{Number: 22, Title: "The Sleeping Challenge", Part: 6},
}

var partNames = map[int]string{
	1: "Laying the Groundwork",
	2: "Wasting Time",
	3: "The End of Time Management",
	4: "Quiet Your Mind",
	5: "The Attention Muscle",
	6: "Taking Productivity to the Next Level",
}

// HotspotAreas are the seven life areas reviewed by the hot spot challenge.
var HotspotAreas = []string{"Mind", "Body", "Emotions", "Career", "Finances", "Relationships", "Fun"}

//go:embed content.yaml
var contentYAML []byte

var loadContent = sync.OnceValues(func() (map[int]Content, error) {
	var items []Content
	if err := yaml.Unmarshal(contentYAML, &items); err != nil {
		return nil, fmt.Errorf("decode curriculum content: %w", err)
	}
	byNumber := make(map[int]Content, len(items))
	for _, item := range items {
		if _, ok := Lookup(item.Number); !ok {
			return nil, fmt.Errorf("curriculum content references unknown challenge %d", item.Number)
		}
		byNumber[item.Number] = item
	}
	return byNumber, nil
})

// All returns the curriculum in order.
func All() []Definition {
	out := make([]Definition, Size)
	copy(out, definitions[:])
	return out
}

// Lookup returns the definition for a challenge number.
func Lookup(number int) (Definition, bool) {
	if !Valid(number) {
		return Definition{}, false
	}
	return definitions[number-1], true
}

// Valid reports whether number is a curriculum challenge number.
func Valid(number int) bool {
	return number >= 1 && number <= Size
}

// PartName returns the display name of a curriculum part, or "" if unknown.
func PartName(part int) string {
	return partNames[part]
}

// ContentFor returns the extended content for a challenge.
func ContentFor(number int) (Content, error) {
	content, err := loadContent()
	if err != nil {
		return Content{}, err
	}
	c, ok := content[number]
	if !ok {
		return Content{}, fmt.Errorf("no content for challenge %d", number)
	}
	return c, nil
}
