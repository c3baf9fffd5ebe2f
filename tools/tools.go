package tools

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from a .env file if one is present.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// CheckEnvs checks the environment variables.
func CheckEnvs(envNames ...string) {
	for _, env := range envNames {
		envStr, exist := os.LookupEnv(env)

		if !exist {
			log.Fatalf("env variable not found: %s", env)
			os.Exit(1)
		}

		if envStr == "" {
			log.Fatalf("env variable not initialized: %s", env)
			os.Exit(1)
		}
	}
}

// EnvFloat reads a float env variable, falling back to def when unset or invalid.
func EnvFloat(name string, def float64) float64 {
	envStr, exist := os.LookupEnv(name)
	if !exist || envStr == "" {
		return def
	}

	val, err := strconv.ParseFloat(envStr, 64)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default %v", name, envStr, def)
		return def
	}

	return val
}

// EnvInt reads an integer env variable, falling back to def when unset or invalid.
func EnvInt(name string, def int) int {
	envStr, exist := os.LookupEnv(name)
	if !exist || envStr == "" {
		return def
	}

	val, err := strconv.Atoi(envStr)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default %v", name, envStr, def)
		return def
	}

	return val
}

// EnvBool reads a boolean env variable, falling back to def when unset or invalid.
func EnvBool(name string, def bool) bool {
	envStr, exist := os.LookupEnv(name)
	if !exist || envStr == "" {
		return def
	}

	val, err := strconv.ParseBool(envStr)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default %v", name, envStr, def)
		return def
	}

	return val
}
