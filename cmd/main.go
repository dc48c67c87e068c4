package main

import (
	"flag"
	"log"
	"path"

	"github.com/spf13/viper"
	"github.com/trafficlens/congestion/pkg/api"
	"github.com/trafficlens/congestion/pkg/congestion"
	"github.com/trafficlens/congestion/pkg/live"
	"github.com/trafficlens/congestion/pkg/store"
	"github.com/trafficlens/congestion/pkg/utils"
	"github.com/trafficlens/congestion/pkg/video"
)

func setDefaults() {
	viper.SetDefault("http.port", "8080")
	viper.SetDefault("video.prod_format", "mp4")
	viper.SetDefault("video.codec", video.DefaultCodec)
	viper.SetDefault("tracker.command", "python3")
	viper.SetDefault("tracker.confidence", 0.25)
	viper.SetDefault("congestion.vehicle_threshold", congestion.DefaultVehicleThreshold)
	viper.SetDefault("congestion.speed_threshold", congestion.DefaultSpeedThreshold)
	viper.SetDefault("congestion.speed_window", congestion.DefaultSpeedWindow)
	viper.SetDefault("congestion.track_ttl_frames", 0)
	viper.SetDefault("database.path", "congestion.db")
}

func main() {
	videoF := flag.String("video", "", "Analyze this video from the source directory once and exit instead of serving")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	setDefaults()
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error: Could not read config file, got '%v'", err)
	}

	//first - create project's data root dir, then the missing directories from config file
	if err := utils.EnsureDir(viper.GetString("directory.root")); err != nil {
		log.Printf("Error: got '%v'", err)
	}
	for _, dir := range viper.GetStringMapString("directory") {
		if err := utils.EnsureDir(dir); err != nil {
			log.Printf("Error: got '%v'", err)
		}
	}

	if viper.GetString("video.prod_format") == "" || viper.GetString("tracker.script") == "" || viper.GetString("tracker.weights") == "" || viper.GetString("frontend.static-files-path") == "" {
		log.Fatalf("Error: Missing critical configurations")
	}

	//fail before serving anything if the thresholds are unusable
	if err := video.CongestionConfig().Validate(); err != nil {
		log.Fatalf("Error: %v", err)
	}

	archive, err := store.Open(viper.GetString("database.path"))
	if err != nil {
		log.Fatalf("Error: Could not open database, got '%v'", err)
	}
	defer archive.Close()

	if err := archive.Migrate(); err != nil {
		log.Fatalf("Error: got '%v'", err)
	}

	hub := live.NewHub()

	//newRun probes the stream rate and opens an archived run for given source video
	newRun := func(videoName string) (string, error) {
		fps, err := video.ProbeFPS(path.Join(viper.GetString("directory.source"), videoName))
		if err != nil {
			return "", err
		}

		run, err := archive.CreateRun(videoName, fps, video.CongestionConfig())
		if err != nil {
			return "", err
		}
		return run.ID, nil
	}

	if *videoF != "" {
		runID, err := newRun(*videoF)
		if err != nil {
			log.Fatalf("Error: Could not start analysis of '%s', got '%v'", *videoF, err)
		}
		video.Tag(*videoF, runID, hub, archive)
		return
	}

	startAnalysis := func(videoName string) error {
		runID, err := newRun(videoName)
		if err != nil {
			return err
		}

		go video.Tag(videoName, runID, hub, archive)
		return nil
	}

	r := api.SetRouter(api.Deps{
		StartAnalysis: startAnalysis,
		Reports:       archive,
		Live:          live.NewHandler(hub),
	})
	if err := r.Run(":" + viper.GetString("http.port")); err != nil {
		log.Fatalf("Error: Got '%v'", err)
	}
}
