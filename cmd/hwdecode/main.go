package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/asticode/go-astiav"
	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/hwvideodecoder"
	"github.com/xaionaro-go/hwvideodecoder/backend/libav"
	"github.com/xaionaro-go/hwvideodecoder/metrics"
	"github.com/xaionaro-go/observability"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input.mp4> <output.yuv>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config", "", "path to a YAML file with the session config")
	fillThreshold := pflag.Int("fill-threshold", 0, "override the amount of queued packets required before decoding (0: keep the config value)")
	dropEvery := pflag.Int("drop-every", 0, "ask the decoder to drop every N-th picture (0: never)")
	snapshotDir := pflag.String("snapshot-dir", "", "a directory to store every decoded picture as a PNG file")
	software := pflag.Bool("software", false, "allow software decoders")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	metricsAddr := pflag.String("metrics-listen-addr", "", "an address to serve Prometheus metrics at")
	pflag.Parse()
	if len(pflag.Args()) != 2 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	cfg := hwvideodecoder.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = hwvideodecoder.LoadConfig(*configPath)
		if err != nil {
			l.Fatal(err)
		}
	}
	if *fillThreshold > 0 {
		cfg.FillThreshold = *fillThreshold
	}
	cfg.AllowSoftwareDecoders = cfg.AllowSoftwareDecoders || *software

	inputPath, outputPath := pflag.Arg(0), pflag.Arg(1)

	l.Debugf("reading '%s'...", inputPath)
	in, err := os.Open(inputPath)
	if err != nil {
		l.Fatal(err)
	}
	defer in.Close()
	track, err := readVideoTrack(in)
	if err != nil {
		l.Fatalf("unable to read the video track of '%s': %v", inputPath, err)
	}
	l.Infof("video track: %dx%d, %d samples", track.Width, track.Height, len(track.Samples))

	out, err := os.Create(outputPath)
	if err != nil {
		l.Fatal(err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	if *snapshotDir != "" {
		if err := os.MkdirAll(*snapshotDir, 0o755); err != nil {
			l.Fatal(err)
		}
	}

	session, err := hwvideodecoder.Open(
		ctx,
		libav.New(libav.Config{}),
		hwvideodecoder.StreamHints{
			CodecID:   astiav.CodecIDH264,
			Width:     track.Width,
			Height:    track.Height,
			ExtraData: track.ParameterSets,
		},
		hwvideodecoder.OptionConfig(cfg),
	)
	if err != nil {
		l.Fatalf("unable to open a decoding session: %v", err)
	}
	defer func() {
		if err := session.Close(ctx); err != nil {
			l.Errorf("unable to close the session: %v", err)
		}
	}()
	l.Infof("decoder: %s (quirks: %s)", session.DecoderComponent(), session.Quirks())

	if *metricsAddr != "" {
		collector := metrics.NewCollector()
		collector.Add("main", session)
		registry := prometheus.NewRegistry()
		registry.MustRegister(collector)
		observability.Go(ctx, func(ctx context.Context) {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			l.Error(http.ListenAndServe(*metricsAddr, mux))
		})
	}

	var pictureCount, bytesWritten int
	for idx, s := range track.Samples {
		if ctx.Err() != nil {
			break
		}
		data, err := track.annexB(s, idx == 0)
		if err != nil {
			l.Errorf("unable to convert sample #%d: %v", idx, err)
			continue
		}
		session.SetDropState(*dropEvery > 0 && (idx+1)%*dropEvery == 0)

		result, err := session.Submit(ctx, data, track.toMicroseconds(s.DTS), track.toMicroseconds(s.PTS))
		var errDecode hwvideodecoder.ErrDecode
		switch {
		case errors.As(err, &errDecode):
			l.Warnf("sample #%d: %v", idx, err)
			continue
		case err != nil:
			l.Fatalf("unable to submit sample #%d: %v", idx, err)
		}
		if !result.Has(hwvideodecoder.ResultPicture) {
			continue
		}

		pic, err := session.GetPicture(ctx)
		if err != nil {
			l.Fatalf("unable to get the picture: %v", err)
		}
		if !pic.Flags.Has(hwvideodecoder.PictureFlagDropped) {
			n, err := writePicture(w, pic)
			if err != nil {
				l.Fatalf("unable to write the picture: %v", err)
			}
			bytesWritten += n
			if *snapshotDir != "" {
				path := filepath.Join(*snapshotDir, fmt.Sprintf("%06d.png", pictureCount))
				if err := imgio.Save(path, pic.Image(), imgio.PNGEncoder()); err != nil {
					l.Errorf("unable to save '%s': %v", path, err)
				}
			}
			pictureCount++
		}
		if err := session.ClearPicture(ctx); err != nil {
			l.Fatalf("unable to clear the picture: %v", err)
		}
	}

	if err := w.Flush(); err != nil {
		l.Fatal(err)
	}
	stats := session.Stats()
	fmt.Printf(
		"pictures:%d dropped:%d decode_errors:%d written:%s\n",
		pictureCount, stats.PicturesDropped, stats.DecodeErrors,
		humanize.Bytes(uint64(bytesWritten)),
	)
}

func writePicture(w io.Writer, pic *hwvideodecoder.Picture) (int, error) {
	var total int
	for plane := 0; plane < 3; plane++ {
		width, height := pic.DisplayWidth, pic.DisplayHeight
		if plane > 0 {
			width, height = width/2, height/2
		}
		stride := pic.LineSize[plane]
		for row := 0; row < height; row++ {
			n, err := w.Write(pic.Data[plane][row*stride : row*stride+width])
			total += n
			if err != nil {
				return total, fmt.Errorf("unable to write row %d of plane %d: %w", row, plane, err)
			}
		}
	}
	return total, nil
}
