package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/ayurdiet-portal/internal/catalog"
)

const (
	greeting       = "🙏 Namaste! I'm your AI Ayurvedic Nutritionist. I'll help you create a personalized diet plan based on Ayurvedic principles. Let's start with a few questions."
	agePrompt      = "First, may I know your age?"
	genderPrompt   = "Great! And what is your gender? (Male/Female/Other)"
	prakritiPrompt = "Perfect! Now, let's determine your Prakriti (body constitution). Which best describes you?\n\n" +
		"• Vata (Air/Ether) - Light frame, creative, energetic\n" +
		"• Pitta (Fire/Water) - Medium build, focused, warm\n" +
		"• Kapha (Earth/Water) - Sturdy build, calm, steady\n" +
		"• Vata-Pitta, Pitta-Kapha, Vata-Kapha (Dual)\n" +
		"• Tridosha (Balanced)"
	vikritiPrompt = "Excellent! Finally, what is your current Vikriti (imbalance)?\n\n" +
		"• Vata - Anxiety, dryness, bloating\n" +
		"• Pitta - Acidity, heat, anger\n" +
		"• Kapha - Lethargy, weight gain, congestion"
	generatingNotice = "✨ Perfect! I have all the information I need. Let me generate your personalized Ayurvedic diet plan..."
	viewPlanPrompt   = "🎉 Would you like to view your complete diet plan now?"
	generationFailed = "❌ Sorry, I encountered an error while generating your diet plan. Please try again or contact support."

	ageHint     = "Please enter your age in years as a number, for example 34."
	genderHint  = "Please answer with Male, Female or Other."
	restartHint = "Please restart the assistant to try again."
)

var (
	Genders        = []string{"Male", "Female", "Other"}
	Constitutions  = []string{"Vata", "Pitta", "Kapha", "Vata-Pitta", "Pitta-Kapha", "Vata-Kapha", "Tridosha"}
	Imbalances     = []string{"Vata", "Pitta", "Kapha"}
	constitutionOf = indexOptions(Constitutions)
	imbalanceOf    = indexOptions(Imbalances)
	genderOf       = indexOptions(Genders)
)

func indexOptions(options []string) map[string]string {
	out := make(map[string]string, len(options))
	for _, o := range options {
		out[optionKey(o)] = o
	}
	return out
}

// optionKey folds case and the separators people type between dual doshas.
func optionKey(raw string) string {
	parts := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ' ' || r == '-' || r == '/' || r == '_'
	})
	return strings.Join(parts, "-")
}

func parseAge(raw string) (int, bool) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || age < 1 || age > 120 {
		return 0, false
	}
	return age, true
}

func parseOption(raw string, options map[string]string) (string, bool) {
	v, ok := options[optionKey(raw)]
	return v, ok
}

func choiceHint(options []string) string {
	return "Please choose one of: " + strings.Join(options, ", ") + "."
}

// summary renders the plan announcement with the first three foods of each list.
func summary(plan catalog.DietPlan) string {
	return fmt.Sprintf("✅ Your personalized %s balancing diet plan has been created!\n\n"+
		"📋 **Key Recommendations:**\n• %s\n\n"+
		"🚫 **Foods to Avoid:**\n• %s\n\n"+
		"💡 **Rationale:** %s\n\n"+
		"Your complete 7-day meal plan is ready!",
		plan.DoshaImbalance, strings.Join(firstN(plan.RecommendedFoods, 3), ", "),
		strings.Join(firstN(plan.AvoidFoods, 3), ", "), plan.Rationale)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
