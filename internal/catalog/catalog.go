package catalog

import "sort"

// Category groups products into template families.
type Category string

const (
	CategoryTarot   Category = "tarot"
	CategoryEnergy  Category = "energy"
	CategoryRitual  Category = "ritual"
	CategoryPremium Category = "premium"
)

// CodeUnknown marks listings that have not been mapped to a product yet.
const CodeUnknown = "unknown"

// Definition describes one sellable product.
type Definition struct {
	Code     string
	Title    string
	Category Category
}

// Definitions is the static ESAMIND product dictionary keyed by product code.
var Definitions = map[string]Definition{
	// Tarot & divination
	"tarot_3_card":             {Code: "tarot_3_card", Title: "Personal Tarot Reading – 3-Card Insight", Category: CategoryTarot},
	"tarot_deep_love":          {Code: "tarot_deep_love", Title: "Deep Love & Relationship Tarot Reading", Category: CategoryTarot},
	"tarot_career_direction":   {Code: "tarot_career_direction", Title: "Career & Life Direction Tarot Reading", Category: CategoryTarot},
	"tarot_shadow_work":        {Code: "tarot_shadow_work", Title: "Shadow Work Tarot Reading (Facing Inner Blocks)", Category: CategoryTarot},
	"tarot_yes_no_energy":      {Code: "tarot_yes_no_energy", Title: "Yes/No Energy Scan with Intuitive Message", Category: CategoryTarot},
	"tarot_future_3_months":    {Code: "tarot_future_3_months", Title: "Future Path Reading – Your Next 3 Months", Category: CategoryTarot},
	"tarot_soul_purpose":       {Code: "tarot_soul_purpose", Title: "Soul Purpose Tarot Reading", Category: CategoryTarot},
	"tarot_decision_two_paths": {Code: "tarot_decision_two_paths", Title: "Decision Guidance Spread – Choose Between Two Paths", Category: CategoryTarot},
	"tarot_karmic_connection":  {Code: "tarot_karmic_connection", Title: "Karmic Connection Reading (Your Bond with Someone)", Category: CategoryTarot},
	"tarot_twin_soulmate":      {Code: "tarot_twin_soulmate", Title: "Twin Flame / Soulmate Energy Reading", Category: CategoryTarot},

	// Energy, readings & intuition
	"energy_aura_field":            {Code: "energy_aura_field", Title: "Aura & Energy Field Reading", Category: CategoryEnergy},
	"energy_intuitive_message":     {Code: "energy_intuitive_message", Title: "Intuitive Message from Spirit (Written PDF)", Category: CategoryEnergy},
	"energy_channeled_message":     {Code: "energy_channeled_message", Title: "Channeled Message for Your Current Situation", Category: CategoryEnergy},
	"energy_blocked_scan":          {Code: "energy_blocked_scan", Title: "Blocked Energy Scan — What's Holding You Back", Category: CategoryEnergy},
	"energy_daily_weekly_guidance": {Code: "energy_daily_weekly_guidance", Title: "Daily or Weekly Guidance Message", Category: CategoryEnergy},
	"energy_cord_connection":       {Code: "energy_cord_connection", Title: "Energy Cord Reading (Connection with a Person)", Category: CategoryEnergy},
	"energy_higher_self":           {Code: "energy_higher_self", Title: "Message from Your Higher Self", Category: CategoryEnergy},
	"energy_past_life":             {Code: "energy_past_life", Title: "Past Life Insight Reading", Category: CategoryEnergy},

	// Rituals & tools (digital products)
	"ritual_cleansing":          {Code: "ritual_cleansing", Title: "Ritual for Cleansing Energy (PDF Guide)", Category: CategoryRitual},
	"ritual_manifest_love":      {Code: "ritual_manifest_love", Title: "Manifestation Ritual for Love / Self-Love", Category: CategoryRitual},
	"ritual_full_moon":          {Code: "ritual_full_moon", Title: "Full Moon Ritual Guide", Category: CategoryRitual},
	"ritual_new_moon":           {Code: "ritual_new_moon", Title: "New Moon Manifestation Workbook", Category: CategoryRitual},
	"ritual_journal_daily":      {Code: "ritual_journal_daily", Title: "Daily Spiritual Journal Template (Printable)", Category: CategoryRitual},
	"ritual_alignment_calendar": {Code: "ritual_alignment_calendar", Title: "Alignment Calendar – Monthly Energies & Intentions", Category: CategoryRitual},
	"ritual_affirmation_cards":  {Code: "ritual_affirmation_cards", Title: "Affirmation Cards Set (Printable)", Category: CategoryRitual},
	"ritual_protection":         {Code: "ritual_protection", Title: "Protection Ritual + Instructions (PDF)", Category: CategoryRitual},
	"ritual_money_prosperity":   {Code: "ritual_money_prosperity", Title: "Money Energy Ritual & Prosperity Guide", Category: CategoryRitual},
	"ritual_dream_guide":        {Code: "ritual_dream_guide", Title: "Dream Interpretation Guide (PDF)", Category: CategoryRitual},

	// Premium packages
	"premium_full_package": {Code: "premium_full_package", Title: "Full Spiritual Reading Package (Tarot + Energy + Message)", Category: CategoryPremium},
	"premium_year_ahead":   {Code: "premium_year_ahead", Title: "Your Year Ahead - 12-Month Forecast Reading (PDF)", Category: CategoryPremium},
}

// Lookup returns the definition for a product code.
func Lookup(code string) (Definition, bool) {
	def, ok := Definitions[code]
	return def, ok
}

// AllCodes returns every known product code in sorted order.
func AllCodes() []string {
	codes := make([]string, 0, len(Definitions))
	for code := range Definitions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
