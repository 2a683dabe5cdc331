package scenario

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Songmu/flextime"
	"github.com/mashiike/nimcheck"
)

// DefaultModel is the model identifier a Cosmos Reason1 NIM serves.
const DefaultModel = "nvidia/cosmos-reason1-7b"

// Names lists the scenarios in execution order.
var Names = []string{"health", "basic", "streaming", "reasoning", "multimodal"}

const reasoningFormat = "Answer the question in the following format: <think>\nyour reasoning\n</think>\n\n<answer>\nyour answer\n</answer>."

type Result struct {
	Name    string        `json:"name"`
	Passed  bool          `json:"passed"`
	Elapsed time.Duration `json:"elapsed"`
	Detail  string        `json:"detail,omitempty"`
}

type Options struct {
	Output    io.Writer
	Model     string
	ImagePath string
}

// Runner drives the scenarios against one client. Presentation goes to
// Output; pass/fail aggregation is returned as Results.
type Runner struct {
	client    nimcheck.Client
	out       io.Writer
	model     string
	imagePath string
}

func NewRunner(client nimcheck.Client, optFns ...func(*Options)) *Runner {
	opts := Options{
		Output: os.Stdout,
		Model:  DefaultModel,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		client:    client,
		out:       opts.Output,
		model:     opts.Model,
		imagePath: opts.ImagePath,
	}
}

// Run executes the named scenario, or all of them in order. When running
// all, a failed health check aborts the rest.
func (r *Runner) Run(ctx context.Context, name string) []Result {
	runAll := name == "all"
	var results []Result
	if runAll || name == "health" {
		res := r.Health(ctx)
		results = append(results, res)
		if runAll && !res.Passed {
			fmt.Fprintln(r.out, "health check failed, skipping remaining scenarios")
			return results
		}
	}
	if runAll || name == "basic" {
		results = append(results, r.Basic(ctx))
	}
	if runAll || name == "streaming" {
		results = append(results, r.Streaming(ctx))
	}
	if runAll || name == "reasoning" {
		results = append(results, r.Reasoning(ctx))
	}
	if runAll || name == "multimodal" {
		results = append(results, r.Multimodal(ctx))
	}
	return results
}

func (r *Runner) Health(ctx context.Context) Result {
	r.banner("Endpoint Health Check")
	start := flextime.Now()
	status := r.client.HealthCheck(ctx)
	fmt.Fprintln(r.out, r.client.EndpointInfo())
	fmt.Fprintln(r.out, status.Message)
	return Result{
		Name:    "health",
		Passed:  status.Ready,
		Elapsed: flextime.Since(start),
		Detail:  status.Message,
	}
}

func (r *Runner) Basic(ctx context.Context) Result {
	r.banner("Basic Text Inference (Non-Streaming)")
	start := flextime.Now()
	req, err := nimcheck.NewRequest(r.model,
		nimcheck.UserMessage(nimcheck.TextPart("What is a robot? Answer in 2-3 sentences.")),
	)
	if err != nil {
		return r.fail("basic", start, err)
	}
	req.MaxTokens = 150
	req.Temperature = 0.6
	resp, err := r.client.Invoke(ctx, req)
	if err != nil {
		return r.fail("basic", start, err)
	}
	fmt.Fprintln(r.out, resp.Content())
	return r.pass("basic", start, fmt.Sprintf("%d choices", len(resp.Choices)))
}

func (r *Runner) Streaming(ctx context.Context) Result {
	r.banner("Streaming Inference")
	start := flextime.Now()
	req, err := nimcheck.NewRequest(r.model,
		nimcheck.UserMessage(nimcheck.TextPart("Count from 1 to 5 and explain each number briefly.")),
	)
	if err != nil {
		return r.fail("streaming", start, err)
	}
	req.MaxTokens = 300
	req.Temperature = 0.6
	content, err := r.consumeStream(ctx, req)
	if err != nil {
		return r.fail("streaming", start, err)
	}
	return r.pass("streaming", start, fmt.Sprintf("~%d tokens received", len(strings.Fields(content))))
}

func (r *Runner) Reasoning(ctx context.Context) Result {
	r.banner("Reasoning Mode (Chain-of-Thought)")
	start := flextime.Now()
	req, err := nimcheck.NewRequest(r.model,
		nimcheck.SystemMessage(reasoningFormat),
		nimcheck.UserMessage(nimcheck.TextPart("If a robot needs to pick up a cup from a table, what physical considerations must it account for?")),
	)
	if err != nil {
		return r.fail("reasoning", start, err)
	}
	req.MaxTokens = 500
	req.Temperature = 0.6
	content, err := r.consumeStream(ctx, req)
	if err != nil {
		return r.fail("reasoning", start, err)
	}
	hasThink := strings.Contains(content, "<think>")
	hasAnswer := strings.Contains(content, "<answer>")
	return r.pass("reasoning", start, fmt.Sprintf("think=%t answer=%t", hasThink, hasAnswer))
}

func (r *Runner) Multimodal(ctx context.Context) Result {
	r.banner("Multimodal Inference (Image + Text)")
	start := flextime.Now()
	imageURI := SampleImageDataURI()
	if r.imagePath != "" {
		uri, err := LoadImageDataURI(r.imagePath)
		if err != nil {
			fmt.Fprintf(r.out, "image not loaded, using sample image: %v\n", err)
		} else {
			imageURI = uri
		}
	}
	req, err := nimcheck.NewRequest(r.model,
		nimcheck.SystemMessage(reasoningFormat),
		nimcheck.UserMessage(
			nimcheck.TextPart("Describe what you see in this image."),
			nimcheck.ImagePart(imageURI),
		),
	)
	if err != nil {
		return r.fail("multimodal", start, err)
	}
	req.MaxTokens = 300
	req.Temperature = 0.6
	if _, err := r.consumeStream(ctx, req); err != nil {
		return r.fail("multimodal", start, err)
	}
	return r.pass("multimodal", start, "image request accepted")
}

func (r *Runner) consumeStream(ctx context.Context, req *nimcheck.Request) (string, error) {
	var sb strings.Builder
	for fragment, err := range r.client.InvokeStream(ctx, req) {
		if err != nil {
			return sb.String(), err
		}
		fmt.Fprint(r.out, fragment)
		sb.WriteString(fragment)
	}
	fmt.Fprintln(r.out)
	return sb.String(), nil
}

func (r *Runner) banner(title string) {
	fmt.Fprintln(r.out, strings.Repeat("=", 60))
	fmt.Fprintln(r.out, title)
	fmt.Fprintln(r.out, strings.Repeat("=", 60))
}

func (r *Runner) pass(name string, start time.Time, detail string) Result {
	fmt.Fprintf(r.out, "completed in %.2fs\n", flextime.Since(start).Seconds())
	return Result{Name: name, Passed: true, Elapsed: flextime.Since(start), Detail: detail}
}

func (r *Runner) fail(name string, start time.Time, err error) Result {
	fmt.Fprintf(r.out, "%s failed: %v\n", name, err)
	return Result{Name: name, Passed: false, Elapsed: flextime.Since(start), Detail: err.Error()}
}
