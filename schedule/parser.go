package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

const (
	triggerSeparator   = ";"
	suitesSeparator    = ":"
	suiteListSeparator = ","
)

// parser accepts standard five field expressions plus descriptors such as
// "@hourly" and "@every 30m".
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// TriggerSpec is one parsed trigger: the suites to run and when.
type TriggerSpec struct {
	Suites   []string
	CronSpec string
}

// ParseTriggerSpecs parses a multi-trigger specification string.
// The format is: suite1,suite2:cron_expression;suite3:cron_expression2
//
// Example:
//
//	"MoneyExample,DiamondExample:0 2 * * *;BrokenChainExample:@hourly"
//
// Returns an error if:
//   - Any trigger is missing suites or cron expression
//   - Any suite name is not in available
//   - Any cron expression is invalid
//   - Any trigger names the same suite twice
func ParseTriggerSpecs(spec string, available map[string]bool) ([]TriggerSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("schedule spec cannot be empty")
	}

	triggerStrs := strings.Split(spec, triggerSeparator)
	specs := make([]TriggerSpec, 0, len(triggerStrs))

	for _, triggerStr := range triggerStrs {
		triggerStr = strings.TrimSpace(triggerStr)
		if triggerStr == "" {
			continue // trailing semicolon
		}

		triggerSpec, err := parseSingleTrigger(triggerStr, available)
		if err != nil {
			return nil, err
		}
		specs = append(specs, triggerSpec)
	}

	if len(specs) == 0 {
		return nil, errors.New("no valid triggers found in schedule spec")
	}

	return specs, nil
}

func parseSingleTrigger(triggerStr string, available map[string]bool) (TriggerSpec, error) {
	// Only the first colon separates suites from the schedule.
	suitesStr, cronSpec, found := strings.Cut(triggerStr, suitesSeparator)
	if !found {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: expected format 'suites:cron', got '%s'", triggerStr)
	}
	suitesStr = strings.TrimSpace(suitesStr)
	cronSpec = strings.TrimSpace(cronSpec)

	if suitesStr == "" {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: missing suites in '%s'", triggerStr)
	}
	if cronSpec == "" {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: missing cron schedule in '%s'", triggerStr)
	}

	names := strings.Split(suitesStr, suiteListSeparator)
	suites := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, s := range names {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if seen[s] {
			return TriggerSpec{}, fmt.Errorf("invalid trigger spec: duplicate suite '%s' in '%s'", s, triggerStr)
		}
		seen[s] = true

		if !available[s] {
			return TriggerSpec{}, fmt.Errorf("invalid trigger spec: unknown suite '%s' in '%s' (available: %s)",
				s, triggerStr, formatAvailable(available))
		}
		suites = append(suites, s)
	}

	if len(suites) == 0 {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: no valid suites in '%s'", triggerStr)
	}

	if _, err := parser.Parse(cronSpec); err != nil {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: invalid cron expression in '%s': %w", triggerStr, err)
	}

	return TriggerSpec{Suites: suites, CronSpec: cronSpec}, nil
}

func formatAvailable(available map[string]bool) string {
	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
