package params

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "params")
