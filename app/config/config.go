package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MatcherCfg is the tuning profile of the matching engine. Defaults reflect
// the production values; a YAML profile can override any of them.
type MatcherCfg struct {
	NeighborhoodRadiusKm float64 `yaml:"neighborhood_radius_km" json:"neighborhood_radius_km"`
	MunicipalityRadiusKm float64 `yaml:"municipality_radius_km" json:"municipality_radius_km"`
	DedupRadiusKm        float64 `yaml:"dedup_radius_km" json:"dedup_radius_km"`

	TextScoreThreshold float64 `yaml:"text_score_threshold" json:"text_score_threshold"`

	SourceWeights struct {
		Title       float64 `yaml:"title" json:"title"`
		Location    float64 `yaml:"location" json:"location"`
		Details     float64 `yaml:"details" json:"details"`
		Description float64 `yaml:"description" json:"description"`
	} `yaml:"source_weights" json:"source_weights"`

	VariantScores struct {
		Normalized     float64 `yaml:"normalized" json:"normalized"`
		PrefixStripped float64 `yaml:"prefix_stripped" json:"prefix_stripped"`
		Alternate      float64 `yaml:"alternate" json:"alternate"`
	} `yaml:"variant_scores" json:"variant_scores"`

	Discovery struct {
		MinNameLen   int      `yaml:"min_name_len" json:"min_name_len"`
		MaxNameWords int      `yaml:"max_name_words" json:"max_name_words"`
		LeadWords    []string `yaml:"lead_words" json:"lead_words"`
		StopWords    []string `yaml:"stop_words" json:"stop_words"`
		InvalidNames []string `yaml:"invalid_names" json:"invalid_names"`
	} `yaml:"discovery" json:"discovery"`
}

// AppCfg is the process-level configuration resolved from environment
// variables via viper.
type AppCfg struct {
	Env         string
	PostgresURL string
	MongoURI    string
	MongoDB     string
	RedisURL    string
	MeiliHost   string
	MeiliAPIKey string
	APIPort     string
	Workers     int
	BatchSize   int
	CacheTTL    time.Duration
}

// C is the active matcher profile.
var C = defaultMatcherCfg()

func defaultMatcherCfg() MatcherCfg {
	var c MatcherCfg
	c.NeighborhoodRadiusKm = 3.0
	c.MunicipalityRadiusKm = 20.0
	c.DedupRadiusKm = 1.0
	c.TextScoreThreshold = 0.9
	c.SourceWeights.Title = 1.0
	c.SourceWeights.Location = 0.95
	c.SourceWeights.Details = 0.85
	c.SourceWeights.Description = 0.75
	c.VariantScores.Normalized = 1.0
	c.VariantScores.PrefixStripped = 0.95
	c.VariantScores.Alternate = 0.9
	c.Discovery.MinNameLen = 4
	c.Discovery.MaxNameWords = 5
	c.Discovery.LeadWords = []string{
		"residencial", "urbanizacion", "lotificacion", "comunidad",
		"condominio", "reparto", "colonia", "barrio", "canton",
		"caserio", "parcelacion", "res.", "col.", "urb.", "bo.", "cond.",
	}
	c.Discovery.StopWords = []string{
		"venta", "alquiler", "casa", "apartamento", "lote", "terreno",
		"pasaje", "poligono", "metros", "carretera", "calle", "avenida",
		"por", "con", "cerca", "frente", "nueva", "exclusiva", "preciosa",
		"etapa", "primera", "segunda", "tercera", "cuarta", "quinta",
		"uno", "dos", "tres", "cuatro", "cinco",
		"i", "ii", "iii", "iv", "v", "vi",
		"comercial", "industrial", "recreativo", "privado", "campestre",
	}
	c.Discovery.InvalidNames = []string{
		"privada", "nueva", "vista", "bonita", "hermosa", "linda",
		"grande", "chica", "central", "norte", "sur",
	}
	return c
}

// LoadMatcherProfile overlays a YAML tuning profile onto the defaults.
func LoadMatcherProfile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read matcher profile: %w", err)
	}
	if err := yaml.Unmarshal(b, &C); err != nil {
		return fmt.Errorf("parse matcher profile: %w", err)
	}
	return nil
}

// SourceWeight returns the weight for a text source field; unknown sources
// get the lowest weight.
func (c *MatcherCfg) SourceWeight(source string) float64 {
	switch source {
	case "title":
		return c.SourceWeights.Title
	case "location":
		return c.SourceWeights.Location
	case "details":
		return c.SourceWeights.Details
	}
	return c.SourceWeights.Description
}

// LoadApp resolves process configuration from the environment.
func LoadApp() *AppCfg {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("POSTGRES_URL", "postgres://localhost:5432/locations?sslmode=disable")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "location_matcher")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("MEILISEARCH_HOST", "http://localhost:7700")
	v.SetDefault("MEILISEARCH_API_KEY", "")
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("MATCH_WORKERS", 8)
	v.SetDefault("MATCH_BATCH_SIZE", 500)
	v.SetDefault("CACHE_TTL_HOURS", 24)

	return &AppCfg{
		Env:         v.GetString("APP_ENV"),
		PostgresURL: v.GetString("POSTGRES_URL"),
		MongoURI:    v.GetString("MONGODB_URI"),
		MongoDB:     v.GetString("MONGODB_DATABASE"),
		RedisURL:    v.GetString("REDIS_URL"),
		MeiliHost:   v.GetString("MEILISEARCH_HOST"),
		MeiliAPIKey: v.GetString("MEILISEARCH_API_KEY"),
		APIPort:     v.GetString("API_PORT"),
		Workers:     v.GetInt("MATCH_WORKERS"),
		BatchSize:   v.GetInt("MATCH_BATCH_SIZE"),
		CacheTTL:    time.Duration(v.GetInt("CACHE_TTL_HOURS")) * time.Hour,
	}
}
