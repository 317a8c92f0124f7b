package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeGoChannel, goChannelFactory)
}

// goChannelFactory 进程内总线：所有订阅共享同一个 GoChannel，天然扇出.
func goChannelFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (*Backend, error) {
	buffer := cfg.GoChannel.OutputBuffer
	if buffer <= 0 {
		buffer = configs.DefaultGoChannelBuffer
	}

	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
		Persistent:          cfg.GoChannel.Persistent,
	}, logger)

	return &Backend{
		Publisher: ch,
		NewSubscriber: func(string) (message.Subscriber, error) {
			return ch, nil
		},
		Close: ch.Close,
	}, nil
}
