package utils

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExtractString safely extracts a string from a DynamoDB attribute map
func ExtractString(item map[string]types.AttributeValue, field string) string {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// ExtractBool safely extracts a boolean from a DynamoDB attribute map
func ExtractBool(item map[string]types.AttributeValue, field string) bool {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberBOOL); ok {
			return v.Value
		}
	}
	return false
}

// HasEnabledGoal reports whether a map-valued attribute contains at least
// one true boolean entry (the per-goal enablement set of a profile).
func HasEnabledGoal(item map[string]types.AttributeValue, field string) bool {
	attr, ok := item[field]
	if !ok {
		return false
	}
	goals, ok := attr.(*types.AttributeValueMemberM)
	if !ok {
		return false
	}
	for _, v := range goals.Value {
		if enabled, ok := v.(*types.AttributeValueMemberBOOL); ok && enabled.Value {
			return true
		}
	}
	return false
}
