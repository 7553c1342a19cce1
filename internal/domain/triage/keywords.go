package triage

// Keyword is one weighted symptom term within a specialization's set.
type Keyword struct {
	Term   string
	Weight int
}

// SpecKeywords binds one specialization to its keyword set. Order inside
// a KnowledgeBase is significant: scoring and ranking walk it as given.
type SpecKeywords struct {
	Specialization string
	Keywords       []Keyword
}

type KnowledgeBase []SpecKeywords

// FallbackSpecialization receives every patient the keyword table cannot
// place.
const FallbackSpecialization = "General Physician"

// DefaultKnowledgeBase returns the clinic's keyword-weight table. Loaded
// once at startup and passed into the engine; never mutated.
func DefaultKnowledgeBase() KnowledgeBase {
	return KnowledgeBase{
		{"Cardiologist", []Keyword{
			{"heart", 10}, {"chest", 10}, {"attack", 20}, {"breath", 8},
			{"bp", 5}, {"pulse", 5}, {"palpitations", 8},
		}},
		{"Dermatologist", []Keyword{
			{"skin", 10}, {"rash", 10}, {"acne", 8}, {"hair", 5},
			{"itch", 5}, {"spots", 5}, {"allergy", 5},
		}},
		{"Orthopedic", []Keyword{
			{"bone", 10}, {"fracture", 20}, {"joint", 10}, {"knee", 10},
			{"back", 8}, {"spine", 8}, {"shoulder", 8}, {"leg", 5},
			{"muscle", 5}, {"ortho", 10},
		}},
		{"Neurologist", []Keyword{
			{"headache", 10}, {"migraine", 15}, {"dizzy", 8}, {"faint", 8},
			{"seizure", 20}, {"numb", 8}, {"memory", 5}, {"brain", 15},
			{"neuro", 10},
		}},
		{"Pediatrician", []Keyword{
			{"baby", 15}, {"child", 10}, {"infant", 15}, {"growth", 5},
			{"vaccination", 10}, {"kids", 5},
		}},
		{"Dentist", []Keyword{
			{"tooth", 10}, {"teeth", 10}, {"gum", 8}, {"cavity", 10},
			{"jaw", 8}, {"mouth", 5}, {"dental", 10},
		}},
		{"ENT", []Keyword{
			{"ear", 10}, {"throat", 10}, {"nose", 8}, {"sinus", 8},
			{"voice", 5}, {"flu", 5}, {"cold", 5}, {"cough", 5},
		}},
		{"Psychiatrist", []Keyword{
			{"depression", 15}, {"anxiety", 10}, {"mental", 10}, {"stress", 8},
			{"sleep", 8}, {"mood", 5}, {"panic", 10},
		}},
		{"Gynecologist", []Keyword{
			{"period", 10}, {"pregnant", 20}, {"pregnancy", 20}, {"menstrual", 10},
			{"birth", 15}, {"women", 5}, {"cramps", 5},
		}},
	}
}
