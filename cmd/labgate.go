package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	ctx "github.com/swanix/labgate/pkg/context"
	"gopkg.in/yaml.v2"
)

func main() {

	configInit()
	config := loadConfig()
	setupLogging(config.LogLevel)

	bytes, _ := yaml.Marshal(config)
	log.Tracef("Resolved config:\n%+v", string(bytes))

	context := ctx.NewContext()
	context.SetupCache(config.CacheAdapters)
	context.SetupRouters(config.Routers, config.Auth0Secret, config.Auth)

	port := viper.GetInt("port")
	log.Printf("Server starting on port %v", port)
	log.Fatal(context.BuildServer(port).ListenAndServe())
}

func setupLogging(logLevel ctx.LogLevel) {
	log.SetFormatter(&log.TextFormatter{
		ForceColors: true,
	})

	switch logLevel {
	case ctx.Info:
		log.SetLevel(log.InfoLevel)
	case ctx.Debug:
		log.SetLevel(log.DebugLevel)
	case ctx.Trace:
		log.SetLevel(log.TraceLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

func loadConfig() *ctx.GatewayConfiguration {
	var config ctx.GatewayConfiguration
	err := viper.Unmarshal(&config)
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}

	viper.SetEnvPrefix("")
	_ = viper.BindEnv("AUTH0_DOMAIN")
	config.Auth0Secret.Domain = viper.GetString("AUTH0_DOMAIN")

	_ = viper.BindEnv("AUTH0_CLIENT_ID")
	config.Auth0Secret.ClientId = viper.GetString("AUTH0_CLIENT_ID")

	_ = viper.BindEnv("AUTH0_CLIENT_SECRET")
	config.Auth0Secret.ClientSecret = viper.GetString("AUTH0_CLIENT_SECRET")
	return &config
}

func configInit() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./cmd")

	// Defaults
	viper.SetDefault("port", 8080)

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
}
