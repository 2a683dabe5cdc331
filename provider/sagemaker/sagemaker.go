package sagemaker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/sagemakerruntime/types"
	"github.com/aws/smithy-go"
	"github.com/mashiike/nimcheck"
)

func init() {
	// Register the backend
	nimcheck.RegisterBackend("sagemaker", func(ctx context.Context, cfg *nimcheck.EndpointConfig) (nimcheck.Client, error) {
		return NewFromConfig(ctx, cfg)
	})
}

const healthCheckTimeout = 10 * time.Second

type RuntimeAPIClient interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
	InvokeEndpointWithResponseStream(ctx context.Context, params *sagemakerruntime.InvokeEndpointWithResponseStreamInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointWithResponseStreamOutput, error)
}

type ControlAPIClient interface {
	DescribeEndpoint(ctx context.Context, params *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
}

// Client invokes a NIM deployed behind a SageMaker inference endpoint.
type Client struct {
	region       string
	endpointName string
	timeout      time.Duration
	strictEOF    bool

	init    sync.Once
	awsCfg  *aws.Config
	runtime RuntimeAPIClient
	control ControlAPIClient
	initErr error
}

func New(region, endpointName string, optFns ...func(*Options)) (*Client, error) {
	if region == "" || endpointName == "" {
		return nil, errors.New("region and endpoint name are required")
	}
	opts := Options{
		Timeout: nimcheck.DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{
		region:       region,
		endpointName: endpointName,
		timeout:      opts.Timeout,
		strictEOF:    opts.StrictEOF,
		awsCfg:       opts.AWSConfig,
		runtime:      opts.Runtime,
		control:      opts.Control,
	}, nil
}

type Options struct {
	Timeout   time.Duration
	StrictEOF bool
	AWSConfig *aws.Config
	Runtime   RuntimeAPIClient
	Control   ControlAPIClient
}

func NewFromConfig(_ context.Context, cfg *nimcheck.EndpointConfig) (*Client, error) {
	return New(cfg.Region, cfg.EndpointName, func(o *Options) {
		o.Timeout = cfg.EffectiveTimeout()
		o.StrictEOF = cfg.StrictEOF
	})
}

// NewWithClients wires pre-built API clients, mainly for tests.
func NewWithClients(region, endpointName string, runtime RuntimeAPIClient, control ControlAPIClient) (*Client, error) {
	return New(region, endpointName, func(o *Options) {
		o.Runtime = runtime
		o.Control = control
	})
}

func (c *Client) initClients() error {
	c.init.Do(func() {
		if c.runtime != nil && c.control != nil {
			return
		}
		if c.awsCfg == nil {
			awsCfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(c.region))
			if err != nil {
				c.initErr = err
				return
			}
			c.awsCfg = &awsCfg
		}
		if c.runtime == nil {
			c.runtime = sagemakerruntime.NewFromConfig(*c.awsCfg)
		}
		if c.control == nil {
			c.control = sagemaker.NewFromConfig(*c.awsCfg)
		}
	})
	return c.initErr
}

func (c *Client) Invoke(ctx context.Context, req *nimcheck.Request) (*nimcheck.Response, error) {
	if err := c.initClients(); err != nil {
		return nil, err
	}
	body, err := marshalChatRequest(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	output, err := c.runtime.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(c.endpointName),
		ContentType:  aws.String("application/json"),
		Body:         body,
	})
	if err != nil {
		return nil, &nimcheck.TransportError{Op: "invoke endpoint", Err: err}
	}
	return nimcheck.DecodeChatResponse(output.Body)
}

func (c *Client) InvokeStream(ctx context.Context, req *nimcheck.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := c.initClients(); err != nil {
			yield("", err)
			return
		}
		streamReq := req.Clone()
		streamReq.Stream = true
		body, err := marshalChatRequest(streamReq)
		if err != nil {
			yield("", err)
			return
		}
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		output, err := c.runtime.InvokeEndpointWithResponseStream(ctx, &sagemakerruntime.InvokeEndpointWithResponseStreamInput{
			EndpointName: aws.String(c.endpointName),
			ContentType:  aws.String("application/json"),
			Accept:       aws.String("application/jsonlines"),
			Body:         body,
		})
		if err != nil {
			yield("", &nimcheck.TransportError{Op: "invoke endpoint with response stream", Err: err})
			return
		}
		stream := output.GetStream()
		defer stream.Close()
		dec := nimcheck.NewStreamDecoder()
		for event := range stream.Events() {
			switch v := event.(type) {
			case *rttypes.ResponseStreamMemberPayloadPart:
				for _, fragment := range dec.Feed(v.Value.Bytes) {
					if !yield(fragment, nil) {
						return
					}
				}
				if dec.Done() {
					return
				}
			default:
				slog.DebugContext(ctx, "unknown event", "type", fmt.Sprintf("%T", event))
			}
		}
		if err := stream.Err(); err != nil {
			yield("", &nimcheck.TransportError{Op: "response stream", Err: err})
			return
		}
		if fragment, ok := dec.Flush(); ok {
			if !yield(fragment, nil) {
				return
			}
		}
		if c.strictEOF && !dec.Done() {
			yield("", nimcheck.ErrIncompleteStream)
		}
	}
}

func marshalChatRequest(req *nimcheck.Request) ([]byte, error) {
	wire, err := nimcheck.EncodeChatRequest(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

func (c *Client) HealthCheck(ctx context.Context) nimcheck.HealthStatus {
	if err := c.initClients(); err != nil {
		return nimcheck.HealthStatus{Message: err.Error()}
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	output, err := c.control.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(c.endpointName),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nimcheck.HealthStatus{Message: fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())}
		}
		return nimcheck.HealthStatus{Message: err.Error()}
	}
	status := output.EndpointStatus
	return nimcheck.HealthStatus{
		Ready:   status == smtypes.EndpointStatusInService,
		Message: fmt.Sprintf("Status: %s, ARN: %s", status, aws.ToString(output.EndpointArn)),
	}
}

func (c *Client) EndpointInfo() string {
	return fmt.Sprintf("SageMaker Endpoint: %s (Region: %s)", c.endpointName, c.region)
}
