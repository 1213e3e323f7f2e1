package questions

import "github.com/pavelanni/interviewer/internal/model"

var defaultTable = Table{
	"CSE": {
		model.DifficultyEasy: {
			"What is a variable in programming?",
			"Explain the difference between compiler and interpreter.",
			"What is an operating system?",
		},
		model.DifficultyMedium: {
			"Explain OOP concepts with examples.",
			"What is normalization in databases?",
			"How does HTTP differ from HTTPS?",
		},
		model.DifficultyHard: {
			"Explain deadlock and its prevention techniques.",
			"How does garbage collection work in Java/Python?",
			"Explain REST vs SOAP architecture.",
		},
	},
	"ECE": {
		model.DifficultyEasy: {
			"What is Ohm's Law?",
			"Explain AC and DC signals.",
			"What is a diode?",
		},
		model.DifficultyMedium: {
			"Explain modulation techniques.",
			"What is a transistor and how does it work?",
			"Explain bandwidth.",
		},
		model.DifficultyHard: {
			"Explain FFT and its applications.",
			"What is noise figure?",
			"Explain antenna radiation patterns.",
		},
	},
	"ME": {
		model.DifficultyEasy: {
			"What is thermodynamics?",
			"Define stress and strain.",
			"What is a heat engine?",
		},
		model.DifficultyMedium: {
			"Explain the working of an IC engine.",
			"What is fatigue failure?",
			"Explain Rankine cycle.",
		},
		model.DifficultyHard: {
			"Explain CFD and its applications.",
			"What is creep?",
			"Explain FEM.",
		},
	},
	"CE": {
		model.DifficultyEasy: {
			"What is cement?",
			"What are the types of loads?",
			"Define beam.",
		},
		model.DifficultyMedium: {
			"Explain RCC.",
			"What is surveying?",
			"Explain soil classification.",
		},
		model.DifficultyHard: {
			"Explain limit state design.",
			"What is prestressed concrete?",
			"Explain foundation failure modes.",
		},
	},
}

// Default returns the built-in engineering question bank.
func Default() *Bank {
	b, err := New(defaultTable)
	if err != nil {
		panic("questions: invalid built-in bank: " + err.Error())
	}
	return b
}
