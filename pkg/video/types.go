package video

import (
	"log"

	"github.com/spf13/viper"
	"github.com/trafficlens/congestion/pkg/congestion"
	"github.com/trafficlens/congestion/pkg/detect"
)

//CongestionConfig builds the analyzer thresholds from configuration file
func CongestionConfig() congestion.Config {
	return congestion.Config{
		VehicleThreshold: viper.GetInt("congestion.vehicle_threshold"),
		SpeedThreshold:   viper.GetFloat64("congestion.speed_threshold"),
		SpeedWindow:      viper.GetInt("congestion.speed_window"),
		TrackTTLFrames:   viper.GetInt("congestion.track_ttl_frames"),
	}
}

//DefaultCodec is the FourCC of the temp '.avi' file when 'video.codec' is unusable
const DefaultCodec = "XVID"

//Codec returns the FourCC from 'video.codec'
func Codec() string {
	codec := viper.GetString("video.codec")
	if len(codec) != 4 {
		log.Printf("Codec: Error, '%s' is not a FourCC, using '%s'", codec, DefaultCodec)
		return DefaultCodec
	}
	return codec
}

//TrackerCommand builds the detector/tracker invocation for given video
func TrackerCommand(videoPath string) detect.Command {
	return detect.Command{
		Program:    viper.GetString("tracker.command"),
		Script:     viper.GetString("tracker.script"),
		Weights:    viper.GetString("tracker.weights"),
		Video:      videoPath,
		Confidence: viper.GetFloat64("tracker.confidence"),
	}
}

//Publisher receives every analyzed frame of a video
type Publisher interface {
	Broadcast(video string, res *congestion.FrameResult)
}

//Archive stores the outcome of an analysis run
type Archive interface {
	SaveFrame(runID string, res *congestion.FrameResult) error
	FinishRun(runID string, counts []congestion.ClassCount) error
}

//run hands the analyzed frames of one video to the live publisher and, when id is not empty, to the archive
type run struct {
	video     string
	id        string
	publisher Publisher
	archive   Archive
}

func (r *run) frame(res *congestion.FrameResult) {
	if r.publisher != nil {
		r.publisher.Broadcast(r.video, res)
	}

	if r.archive != nil && r.id != "" {
		if err := r.archive.SaveFrame(r.id, res); err != nil {
			log.Printf("run.frame: Error archiving frame %d of '%s', got '%v'", res.Frame, r.video, err)
		}
	}
}

//finish closes the archived run. uniques is nil when the analysis failed before the first frame
func (r *run) finish(uniques *congestion.UniqueRegistry) {
	if r.archive == nil || r.id == "" {
		return
	}

	var counts []congestion.ClassCount
	if uniques != nil {
		counts = uniques.PerClassCounts()
	}

	if err := r.archive.FinishRun(r.id, counts); err != nil {
		log.Printf("run.finish: Error finishing run '%s', got '%v'", r.id, err)
	}
}
