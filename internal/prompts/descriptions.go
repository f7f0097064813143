package prompts

import "github.com/ashureev/coachd/internal/curriculum"

var descriptions = [curriculum.Size]string{
	`THE VALUES CHALLENGE: Help them discover their deeper reasons for becoming productive. Ask: "If you had 2 extra hours of leisure every day, how would you use that time?" and "What productivity goals or new habits did you have in mind?"`,
	`THE IMPACT CHALLENGE: Help identify their highest-impact tasks. Ask: "Of everything you're responsible for, if you could only do ONE thing all day, what would contribute the most value?" Then ask for #2 and #3.`,
	`THE RULE OF 3 CHALLENGE: Before diving into the day, have them pick the THREE things they want to have accomplished by end of day. Think wins, achievements, or highlights.`,
	`THE PRIME-TIME CHALLENGE: Help them track when they have the most energy throughout the day. What times do they feel most alert and focused?`,
	`THE FLIPPING CHALLENGE: When they mention procrastinating, help them identify which triggers are making the task aversive (boring, frustrating, difficult, ambiguous, unstructured, lacking meaning).`,
	`THE TIME-TRAVELING CHALLENGE: Help them connect with their future self. "When you put something off, you're being unfair to future you." How closely do they identify with their future self?`,
	`THE DISCONNECTING CHALLENGE: Encourage them to disconnect from the internet for 30 minutes tomorrow. Observe how much work gets done without digital distractions.`,
	`THE SHRINK YOUR WORK CHALLENGE: Help them limit time on an important task. Set a timer for HALF the time they think it will take. Energy and attention expand to fill available time.`,
	`THE WORKING IN PRIME TIME CHALLENGE: Schedule their most important tasks during their Biological Prime Time when energy peaks.`,
	`THE MAINTENANCE CHALLENGE: Help them batch low-energy maintenance tasks (laundry, emails, errands) into one designated time block.`,
	`THE ZENNING OUT CHALLENGE: Identify low-impact support tasks they can shrink by setting limits on time or frequency.`,
	`THE DELEGATION CHALLENGE: Calculate the value of their time. What tasks could they delegate or outsource? What 5 things could they say no to?`,
	`THE CAPTURE CHALLENGE: Guide them through a brain dump. Get EVERYTHING out of their head onto paper: tasks, worries, ideas, random thoughts.`,
	`THE HOT SPOT CHALLENGE: Review the 7 life areas: Mind, Body, Emotions, Career, Finances, Relationships, Fun. Which need attention?`,
	`THE WANDERING CHALLENGE: Let your mind wander for 15 minutes with just a notepad. Capture any ideas that emerge.`,
	`THE NOTIFICATION CHALLENGE: Disable notification alerts on all devices. Every interruption costs ~25 minutes of productivity.`,
	`THE SINGLE-TASKING CHALLENGE: Spend 15-30 minutes focusing on just ONE thing. When your mind wanders, gently bring it back.`,
	`THE MEDITATION CHALLENGE: Work out your attention muscle for 5 minutes every day for 7 days, either meditation or mindfulness.`,
	`THE LAMEST DIET CHALLENGE: Make ONE small incremental improvement to eating habits. Small changes stick.`,
	`THE WATER CHALLENGE: Make ONE improvement to what you drink: less sugar, less caffeine, more water.`,
	`THE HEART RATE CHALLENGE: Elevate heart rate for 15 minutes tomorrow through walking, jogging, or any aerobic exercise.`,
	`THE SLEEPING CHALLENGE: Reflect on sleep quality. Do you need to catch up on weekends? Consider a bedtime ritual.`,
}
