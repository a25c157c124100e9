package model

// Dataset maps one asset file to its destination collection.
type Dataset struct {
	File       string
	Collection string
}

// DefaultDatasets is the fixed asset → collection mapping of the seed tool.
func DefaultDatasets() []Dataset {
	return []Dataset{
		{File: "tools.json", Collection: "tools"},
		{File: "hobbies.json", Collection: "hobbies"},
		{File: "skills.json", Collection: "skills"},
	}
}
