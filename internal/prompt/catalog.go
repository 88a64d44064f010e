// Package prompt holds the static round-content catalog. Categories are
// difficulty-tagged so classic rounds can be filtered for younger groups.
package prompt

import (
	"math/rand"
	"sync"

	"github.com/lienzo-games/lienzo/internal/domain"
)

type Category struct {
	Name       string
	Difficulty domain.Difficulty
	Words      []string
}

type sequenceEntry struct {
	situation string
	steps     []string
}

type wordwrapEntry struct {
	word    string
	context string
}

// Catalog serves prompts for every game mode. Safe for concurrent use.
type Catalog struct {
	categories []Category
	sequences  []sequenceEntry
	wordwraps  []wordwrapEntry

	mu  sync.Mutex
	rng *rand.Rand
}

func NewCatalog(seed int64) *Catalog {
	return &Catalog{
		categories: defaultCategories,
		sequences:  defaultSequences,
		wordwraps:  defaultWordwraps,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// NextPrompt returns the payload variant for the given mode. The difficulty
// filter only applies to CLASSIC; pass the zero value for any difficulty.
// The returned payload is never empty and the error is always nil; the error
// return exists for sources that fetch content remotely.
func (c *Catalog) NextPrompt(mode domain.Mode, difficulty domain.Difficulty) (domain.PromptPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch mode {
	case domain.ModeSequence:
		entry := c.sequences[c.rng.Intn(len(c.sequences))]
		return domain.PromptPayload{Sequence: &domain.SequencePrompt{
			Situation: entry.situation,
			Steps:     entry.steps,
		}}, nil

	case domain.ModeWordwrap:
		entry := c.wordwraps[c.rng.Intn(len(c.wordwraps))]
		return domain.PromptPayload{Wordwrap: &domain.WordwrapPrompt{
			HiddenWord: entry.word,
			Context:    entry.context,
		}}, nil

	default:
		return c.classic(difficulty), nil
	}
}

func (c *Catalog) classic(difficulty domain.Difficulty) domain.PromptPayload {
	pool := c.categories
	if difficulty != "" {
		filtered := make([]Category, 0, len(pool))
		for _, cat := range c.categories {
			if cat.Difficulty == difficulty {
				filtered = append(filtered, cat)
			}
		}
		if len(filtered) > 0 {
			pool = filtered
		}
	}

	cat := pool[c.rng.Intn(len(pool))]
	return domain.PromptPayload{Classic: &domain.ClassicPrompt{
		Word:       cat.Words[c.rng.Intn(len(cat.Words))],
		Category:   cat.Name,
		Difficulty: cat.Difficulty,
	}}
}

// Categories exposes the catalog metadata, e.g. for a content listing endpoint.
func (c *Catalog) Categories() []Category {
	return c.categories
}

var defaultCategories = []Category{
	{
		Name:       "Animales y Naturaleza",
		Difficulty: domain.DifficultyEasy,
		Words: []string{
			"gato", "perro", "elefante", "mariposa", "árbol", "flor", "sol", "luna",
			"río", "montaña", "bosque", "océano", "nube", "estrella", "pez", "ave",
			"león", "jirafa", "pingüino", "delfín", "abeja", "hormiga",
		},
	},
	{
		Name:       "Emociones y Sentimientos",
		Difficulty: domain.DifficultyMedium,
		Words: []string{
			"felicidad", "tristeza", "miedo", "sorpresa", "enojo", "amor",
			"amistad", "cooperación", "ayuda", "compartir", "respeto", "tolerancia",
			"confianza", "gratitud", "perdón", "paciencia", "esperanza", "calma",
		},
	},
	{
		Name:       "Ciencia y Tecnología",
		Difficulty: domain.DifficultyMedium,
		Words: []string{
			"energía", "electricidad", "magnetismo", "gravedad", "átomo",
			"telescopio", "microscopio", "robot", "computadora", "internet",
			"reciclaje", "solar", "viento", "agua", "experimento", "laboratorio",
		},
	},
	{
		Name:       "Arte y Creatividad",
		Difficulty: domain.DifficultyHard,
		Words: []string{
			"música", "danza", "pintura", "escultura", "teatro", "poesía",
			"imaginación", "creatividad", "inspiración", "belleza", "armonía",
			"ritmo", "color", "forma", "textura", "melodía", "historia",
		},
	},
	{
		Name:       "Profesiones y Oficios",
		Difficulty: domain.DifficultyEasy,
		Words: []string{
			"médico", "maestro", "bombero", "policía", "chef", "artista",
			"científico", "ingeniero", "agricultor", "veterinario", "piloto",
			"músico", "escritor", "deportista", "constructor", "enfermero",
		},
	},
}

var defaultSequences = []sequenceEntry{
	{
		situation: "Preparar el desayuno",
		steps:     []string{"despertar", "ir a la cocina", "sacar ingredientes", "cocinar", "comer"},
	},
	{
		situation: "Plantar un árbol",
		steps:     []string{"cavar hoyo", "poner semilla", "cubrir con tierra", "regar", "crecer"},
	},
	{
		situation: "Hacer un amigo",
		steps:     []string{"saludar", "presentarse", "conversar", "jugar juntos", "despedirse"},
	},
	{
		situation: "Resolver un problema",
		steps:     []string{"identificar problema", "pensar soluciones", "elegir mejor opción", "aplicar solución", "evaluar resultado"},
	},
	{
		situation: "Cuidar el medio ambiente",
		steps:     []string{"separar basura", "reciclar", "ahorrar agua", "plantar", "educar a otros"},
	},
}

var defaultWordwraps = []wordwrapEntry{
	{word: "amistad", context: "Describe una relación especial entre personas sin usar la palabra directamente"},
	{word: "creatividad", context: "Explica el proceso de tener ideas nuevas sin mencionar la palabra"},
	{word: "respeto", context: "Describe cómo tratar bien a otros sin usar la palabra directamente"},
	{word: "aprendizaje", context: "Explica cómo adquirimos conocimientos sin usar la palabra"},
	{word: "cooperación", context: "Describe trabajar juntos para lograr algo sin mencionar la palabra"},
}
