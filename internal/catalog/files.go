package catalog

// questionsFile is the on-disk shape of {lang}/questions.yaml
type questionsFile struct {
	Domains   []domainFile   `yaml:"domains"`
	Questions []questionFile `yaml:"questions"`
}

type domainFile struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type questionFile struct {
	ID      string       `yaml:"id"`
	Domain  string       `yaml:"domain"`
	Text    string       `yaml:"text"`
	Options []optionFile `yaml:"options"`
}

type optionFile struct {
	Value         string `yaml:"value"`
	Label         string `yaml:"label"`
	Points        int    `yaml:"points"`
	ReportContext string `yaml:"report_context"`
}
