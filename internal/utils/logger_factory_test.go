package utils_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/devtask/internal/utils"
)

const loggerFactorySubtestNameTemplateConstant = "%d_%s"

func TestLoggerFactoryCreateLoggerOutputs(testInstance *testing.T) {
	testCases := []struct {
		name            string
		requestedLevel  utils.LogLevel
		requestedFormat utils.LogFormat
		expectError     bool
	}{
		{
			name:            "structured format builds diagnostic logger",
			requestedLevel:  utils.LogLevelInfo,
			requestedFormat: utils.LogFormatStructured,
		},
		{
			name:            "console format builds both loggers",
			requestedLevel:  utils.LogLevelDebug,
			requestedFormat: utils.LogFormatConsole,
		},
		{
			name:            "warn level accepted",
			requestedLevel:  utils.LogLevelWarn,
			requestedFormat: utils.LogFormatConsole,
		},
		{
			name:            "error level accepted",
			requestedLevel:  utils.LogLevelError,
			requestedFormat: utils.LogFormatStructured,
		},
		{
			name:            "unsupported level rejected",
			requestedLevel:  utils.LogLevel("verbose"),
			requestedFormat: utils.LogFormatConsole,
			expectError:     true,
		},
		{
			name:            "unsupported format rejected",
			requestedLevel:  utils.LogLevelInfo,
			requestedFormat: utils.LogFormat("plain"),
			expectError:     true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(loggerFactorySubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			factory := utils.NewLoggerFactory()
			outputs, creationError := factory.CreateLoggerOutputs(testCase.requestedLevel, testCase.requestedFormat)
			if testCase.expectError {
				require.Error(subtest, creationError)
				require.Nil(subtest, outputs.DiagnosticLogger)
				require.Nil(subtest, outputs.ConsoleLogger)
				return
			}
			require.NoError(subtest, creationError)
			require.NotNil(subtest, outputs.DiagnosticLogger)
			require.NotNil(subtest, outputs.ConsoleLogger)
		})
	}
}
