package video

import (
	"context"
	"errors"
	"log"
	"os"
	"os/exec"
	"path"

	"github.com/spf13/viper"
	"github.com/trafficlens/congestion/pkg/congestion"
	"github.com/trafficlens/congestion/pkg/detect"
	"github.com/trafficlens/congestion/pkg/utils"
	"gocv.io/x/gocv"
)

//Tag reads a video from the source directory, runs the external detector/tracker over it, analyzes every frame for
//congestion and plots the results on the frames. The tagged video is written with 'video.codec' to the temp directory and then
//converted by ffmpeg into the ready directory using 'video.prod_format'. Every frame result is also handed to publisher
//and, when runID is not empty, to archive. Both may be nil. The archived run is finished on every return path.
//srcVideoName should include file's extension ('.mp4', etc.)
func Tag(srcVideoName string, runID string, publisher Publisher, archive Archive) {
	srcVideoPath := path.Join(viper.GetString("directory.source"), srcVideoName)
	tmpVideoPath := path.Join(viper.GetString("directory.temp"), utils.TrimExt(srcVideoName)+".avi")
	outputVideoPath := path.Join(viper.GetString("directory.ready"), utils.TrimExt(srcVideoName)+"."+viper.GetString("video.prod_format"))

	rec := &run{video: srcVideoName, id: runID, publisher: publisher, archive: archive}

	var uniques *congestion.UniqueRegistry
	defer func() { rec.finish(uniques) }()

	analyzer, err := congestion.NewAnalyzer(CongestionConfig())
	if err != nil {
		log.Printf("Tag: Error, Got '%v'", err)
		return
	}
	uniques = analyzer.Uniques()

	cap, err := gocv.VideoCaptureFile(srcVideoPath)
	if err != nil {
		log.Printf("Tag: Error, Got '%v'", err)
		return
	}
	defer cap.Close()

	//the stream rate is used as a whole number of frames per second
	fps := float64(int(cap.Get(gocv.VideoCaptureFPS)))

	videoWriter, err := gocv.VideoWriterFile(tmpVideoPath, Codec(), fps, int(cap.Get(gocv.VideoCaptureFrameWidth)), int(cap.Get(gocv.VideoCaptureFrameHeight)), true)
	if err != nil {
		log.Printf("Tag: Error, Got '%v'", err)
		return
	}
	defer os.Remove(tmpVideoPath) //remove '.avi' temp file at the end of this function

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	framesC := make(chan *detect.Frame)
	trackerErrC := make(chan error, 1)

	go func() {
		trackerErrC <- detect.Run(ctx, TrackerCommand(srcVideoPath), framesC)
	}()

	frameMat := gocv.NewMat()
	defer frameMat.Close()

	for trackerFrame := range framesC {
		if ok := cap.Read(&frameMat); !ok || frameMat.Empty() {
			log.Printf("Tag: '%s' has no frame %d while the tracker does, stopping", srcVideoName, trackerFrame.Number)
			cancel()
			break
		}

		res := analyzer.Analyze(trackerFrame.Detections(), fps)

		plotResult(&frameMat, res)
		if err := videoWriter.Write(frameMat); err != nil {
			log.Printf("Tag: Error writing frame %d of '%s', got '%v'", res.Frame, srcVideoName, err)
		}

		rec.frame(res)
	}

	if err := <-trackerErrC; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Tag: Error from tracker on '%s', got '%v'", srcVideoName, err)
	}

	log.Printf("Tag: '%s' done, %d unique objects, %d tracks held", srcVideoName, analyzer.Uniques().Total(), analyzer.Tracks().Len())

	//writer must be flushed before ffmpeg reads the file
	if err := videoWriter.Close(); err != nil {
		log.Printf("Tag: Error closing '%s', got '%v'", tmpVideoPath, err)
	}

	//Convert from 'avi' to the production format. example: ffmpeg -i highway.avi highway.mp4
	cmd := exec.Command("ffmpeg", "-y", "-i", tmpVideoPath, outputVideoPath)
	if err := cmd.Run(); err != nil {
		log.Printf("Tag: Error from ffmpeg, got '%v'", err)
	}
}

//ProbeFPS returns the whole number frame rate of given video, the same value Tag uses for speed estimation
func ProbeFPS(videoPath string) (float64, error) {
	cap, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return 0, err
	}
	defer cap.Close()

	return float64(int(cap.Get(gocv.VideoCaptureFPS))), nil
}
