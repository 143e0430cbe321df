package model

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/agrisense/agri-api/internal/catalog"
	"github.com/agrisense/agri-api/internal/metrics"
)

type Options struct {
	ModelPath  string
	LibPath    string // onnxruntime shared library, empty for the platform default
	InputName  string // empty selects the model's first input
	OutputName string // empty selects the model's first output
}

// runner executes one forward pass on a preprocessed batch.
type runner interface {
	run(input []float32) ([]float32, error)
	close()
}

// Classifier maps crop-leaf images to catalog labels. It is immutable after
// Load and safe for concurrent use.
type Classifier struct {
	Info   Info
	labels []string
	rn     runner
	logger *zap.Logger
}

// Load initializes onnxruntime, checks the model's tensors against the
// expected input resolution and the label catalog, and opens a session.
func Load(opts Options, logger *zap.Logger) (*Classifier, error) {
	if opts.LibPath != "" {
		ort.SetSharedLibraryPath(opts.LibPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	info, err := inspect(opts)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}
	if err := checkOutput(info.OutputShape); err != nil {
		ort.DestroyEnvironment()
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		[]string{info.InputName}, []string{info.OutputName}, nil)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logger.Info("model loaded",
		zap.String("path", opts.ModelPath),
		zap.String("input", info.InputName),
		zap.Int64s("input_shape", info.InputShape),
		zap.String("output", info.OutputName),
		zap.Int64s("output_shape", info.OutputShape),
		zap.Stringer("layout", info.Layout),
		zap.Int("classes", catalog.Len()))

	return newClassifier(info, catalog.Labels, &onnxRunner{
		session:     session,
		inputShape:  ort.NewShape(info.InputShape...),
		outputShape: ort.NewShape(info.OutputShape...),
	}, logger), nil
}

func newClassifier(info Info, labels []string, rn runner, logger *zap.Logger) *Classifier {
	return &Classifier{
		Info:   info,
		labels: labels,
		rn:     rn,
		logger: logger,
	}
}

// ClassifyFile decodes the image at path and classifies it.
func (c *Classifier) ClassifyFile(ctx context.Context, path string) (Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer f.Close()

	img, format, err := decodeImage(f)
	if err != nil {
		return Prediction{}, err
	}
	c.logger.Debug("image decoded",
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	return c.Classify(ctx, img)
}

func (c *Classifier) Classify(ctx context.Context, img image.Image) (Prediction, error) {
	start := time.Now()
	defer func() {
		metrics.InferenceDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	input := Preprocess(img, c.Info.ImageSize, c.Info.Layout)

	// the forward pass itself cannot be interrupted
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	probs, err := c.rn.run(input)
	if err != nil {
		return Prediction{}, fmt.Errorf("inference failed: %w", err)
	}

	return Argmax(probs, c.labels)
}

func (c *Classifier) Close() {
	if c.rn != nil {
		c.rn.close()
	}
}

type onnxRunner struct {
	session     *ort.DynamicAdvancedSession
	inputShape  ort.Shape
	outputShape ort.Shape
}

// run allocates tensors per call so concurrent requests never share buffers.
func (o *onnxRunner) run(input []float32) ([]float32, error) {
	inputTensor, err := ort.NewTensor(o.inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](o.outputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := o.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, err
	}

	out := outputTensor.GetData()
	probs := make([]float32, len(out))
	copy(probs, out)
	return probs, nil
}

func (o *onnxRunner) close() {
	if o.session != nil {
		o.session.Destroy()
	}
	ort.DestroyEnvironment()
}

// inspect reads the model's declared tensors and resolves names, shapes and
// layout.
func inspect(opts Options) (Info, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return Info{}, fmt.Errorf("failed to read model info: %w", err)
	}

	in, err := pick(inputs, opts.InputName, "input")
	if err != nil {
		return Info{}, err
	}
	out, err := pick(outputs, opts.OutputName, "output")
	if err != nil {
		return Info{}, err
	}
	if in.DataType != ort.TensorElementDataTypeFloat {
		return Info{}, fmt.Errorf("input %q has element type %v, want float", in.Name, in.DataType)
	}

	inputShape, layout, err := resolveInput(in.Dimensions)
	if err != nil {
		return Info{}, fmt.Errorf("input %q: %w", in.Name, err)
	}

	return Info{
		InputName:   in.Name,
		OutputName:  out.Name,
		InputShape:  inputShape,
		OutputShape: fixBatch(out.Dimensions),
		Layout:      layout,
		ImageSize:   ImageSize,
	}, nil
}

func pick(infos []ort.InputOutputInfo, name, kind string) (ort.InputOutputInfo, error) {
	if len(infos) == 0 {
		return ort.InputOutputInfo{}, fmt.Errorf("model has no %s tensors", kind)
	}
	if name == "" {
		return infos[0], nil
	}
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return ort.InputOutputInfo{}, fmt.Errorf("model has no %s named %q", kind, name)
}

// resolveInput accepts [N,128,128,3] or [N,3,128,128], with dynamic
// dimensions (-1) pinned to a single 128×128 image.
func resolveInput(dims []int64) ([]int64, Layout, error) {
	if len(dims) != 4 {
		return nil, 0, fmt.Errorf("expected 4-D image tensor, got %v", dims)
	}

	var layout Layout
	switch {
	case dims[3] == 3:
		layout = NHWC
	case dims[1] == 3:
		layout = NCHW
	default:
		return nil, 0, fmt.Errorf("cannot find 3-channel axis in %v", dims)
	}

	shape := []int64{1, ImageSize, ImageSize, 3}
	spatial := []int64{dims[1], dims[2]}
	if layout == NCHW {
		shape = []int64{1, 3, ImageSize, ImageSize}
		spatial = []int64{dims[2], dims[3]}
	}
	for _, d := range spatial {
		if d != ImageSize && d > 0 {
			return nil, 0, fmt.Errorf("model expects %v input, images are resized to %dx%d", dims, ImageSize, ImageSize)
		}
	}

	return shape, layout, nil
}

func fixBatch(dims []int64) []int64 {
	shape := make([]int64, len(dims))
	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		shape[i] = d
	}
	return shape
}

// checkOutput requires a single-item batch of one score per catalog label.
func checkOutput(shape []int64) error {
	if len(shape) == 0 {
		return fmt.Errorf("%w: output has no dimensions", ErrShapeMismatch)
	}
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	last := shape[len(shape)-1]
	if n != last {
		return fmt.Errorf("%w: output shape %v is not a single batch", ErrShapeMismatch, shape)
	}
	if err := catalog.Validate(last); err != nil {
		return fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	return nil
}
