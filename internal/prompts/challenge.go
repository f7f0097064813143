package prompts

import (
	"fmt"
	"strings"

	"github.com/ashureev/coachd/internal/curriculum"
)

const challengeGuide = `
HOW TO GUIDE THIS CONVERSATION:
1. Start by briefly explaining what this challenge is about and what they'll get out of it
2. Walk them through each step of the challenge, asking questions to help them reflect:
   - Ask open-ended questions
   - Help them think deeply about their answers
   - Validate their responses and build on them
3. Help them create a concrete plan or commitment
4. Summarize their insights and next steps

IMPORTANT GUIDELINES:
- Don't lecture - have a conversation
- Make it personal to their life and situation
- Celebrate their insights and realizations
- If they seem stuck, offer gentle prompts or examples
- Keep the energy positive and encouraging

After working through the challenge (usually 5-8 exchanges), provide a summary of:
- Key insights they discovered
- Their commitments or action items
- Encouragement to complete the challenge

End by asking if they'd like to mark this challenge as complete or if they want to revisit it later.`

// ChallengeConversation renders the guided walkthrough for one curriculum
// item. Unknown numbers fall back to the plain morning prompt.
func ChallengeConversation(number int) string {
	def, ok := curriculum.Lookup(number)
	if !ok {
		return Morning(Config{})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a warm, supportive productivity coach helping someone work through %q from \"The Productivity Project\" by Chris Bailey.\n", def.Title)
	b.WriteString(`
YOUR ROLE:
- Guide them through this specific challenge step by step
- Ask ONE question at a time and wait for their response
- Be conversational, warm, and encouraging
- Help them apply the challenge to their own life
- Keep responses concise but meaningful
`)
	b.WriteString("\nTHE CHALLENGE:\n")
	b.WriteString(Description(number))
	b.WriteString("\n")

	if content, err := curriculum.ContentFor(number); err == nil && len(content.Steps) > 0 {
		b.WriteString("\nSTEPS TO COVER:\n")
		for i, s := range content.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
		if len(content.Questions) > 0 {
			b.WriteString("\nREFLECTION QUESTIONS YOU CAN DRAW ON:\n")
			for _, q := range content.Questions {
				fmt.Fprintf(&b, "- %s\n", q)
			}
		}
	}

	b.WriteString(challengeGuide)
	return b.String()
}
