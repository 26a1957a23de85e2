package transition

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "state")
